// Copyright 2026 The distcheck Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"

	"github.com/golang-dep-rework/distcheck/dist"
)

const checkShortHelp = `Check installability of binaries in a catalogue`
const checkLongHelp = `
Check reads the Sources/Packages_<arch> catalogue under dir and reports
whether each named binary is installable for arch. With no binary names,
every binary currently in the architecture's universe is checked.

Exits non-zero if any checked binary is not installable (No or GaveUp).
`

type checkCommand struct {
	arch string
}

func (cmd *checkCommand) Name() string       { return "check" }
func (cmd *checkCommand) Args() string       { return "-arch=<arch> <dir> [binary...]" }
func (cmd *checkCommand) ShortHelp() string  { return checkShortHelp }
func (cmd *checkCommand) LongHelp() string   { return checkLongHelp }
func (cmd *checkCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.arch, "arch", "amd64", "architecture to check")
}

func (cmd *checkCommand) Run(c *ctx, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("check requires a catalogue directory")
	}
	dir := args[0]
	names := args[1:]

	cat, err := dist.ReadDirectory(dir, c.arches([]string{cmd.arch}))
	if err != nil {
		return err
	}
	u, err := cat.GetForArch(cmd.arch)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = u.Names()
	}

	var failed int
	for _, name := range names {
		result, err := u.IsInstallable(name, c.Cfg, c.Trace)
		if err != nil {
			fmt.Fprintf(c.Out, "%s: error: %v\n", name, err)
			failed++
			continue
		}
		fmt.Fprintf(c.Out, "%s: %s\n", name, result)
		if result != dist.Yes {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d binaries are not installable", failed, len(names))
	}
	return nil
}

// Copyright 2026 The distcheck Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"

	"github.com/golang-dep-rework/distcheck/dist"
)

const removeShortHelp = `Remove a source and its binaries from a suite`
const removeLongHelp = `
Remove loads the target suite's existing notes, discards the named source
entirely (every binary it built, on every architecture), and writes the
result back to target.
`

type removeCommand struct{}

func (cmd *removeCommand) Name() string      { return "remove" }
func (cmd *removeCommand) Args() string      { return "<target-dir> <source>" }
func (cmd *removeCommand) ShortHelp() string { return removeShortHelp }
func (cmd *removeCommand) LongHelp() string  { return removeLongHelp }
func (cmd *removeCommand) Register(*flag.FlagSet) {}

func (cmd *removeCommand) Run(c *ctx, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("remove requires <target-dir> <source>")
	}
	targetDir, source := args[0], args[1]

	arches := c.arches(nil)
	if arches == nil {
		return fmt.Errorf("no architectures configured: pass -config pointing at a distcheck.toml with [catalogue] arches")
	}

	target, err := dist.ReadDirectory(targetDir, arches)
	if err != nil {
		return err
	}
	sn := dist.LoadSuiteNote(target)

	if err := sn.RemoveSource(source); err != nil {
		return err
	}
	sn.CommitChanges()

	if err := sn.WriteNotes(targetDir); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "removed %s from %s\n", source, targetDir)
	return nil
}

// Copyright 2026 The distcheck Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"

	"github.com/golang-dep-rework/distcheck/dist"
)

const upgradeShortHelp = `Stage a source upgrade into a target suite`
const upgradeLongHelp = `
Upgrade loads the target suite's existing notes (if target already holds a
catalogue), reads the named source from the from-directory, and replaces
whatever binaries the suite currently attributes to that source. The result
is written back to target.
`

type upgradeCommand struct{}

func (cmd *upgradeCommand) Name() string      { return "upgrade" }
func (cmd *upgradeCommand) Args() string      { return "<from-dir> <target-dir> <source>" }
func (cmd *upgradeCommand) ShortHelp() string { return upgradeShortHelp }
func (cmd *upgradeCommand) LongHelp() string  { return upgradeLongHelp }
func (cmd *upgradeCommand) Register(*flag.FlagSet) {}

func (cmd *upgradeCommand) Run(c *ctx, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("upgrade requires <from-dir> <target-dir> <source>")
	}
	fromDir, targetDir, source := args[0], args[1], args[2]

	arches := c.arches(nil)
	if arches == nil {
		return fmt.Errorf("no architectures configured: pass -config pointing at a distcheck.toml with [catalogue] arches")
	}

	from, err := dist.ReadDirectory(fromDir, arches)
	if err != nil {
		return err
	}

	target, err := dist.ReadDirectory(targetDir, arches)
	if err != nil {
		return err
	}
	sn := dist.LoadSuiteNote(target)

	if err := sn.UpgradeSource(from, source); err != nil {
		return err
	}
	sn.CommitChanges()

	if err := sn.WriteNotes(targetDir); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "upgraded %s into %s\n", source, targetDir)
	return nil
}

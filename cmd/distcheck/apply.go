// Copyright 2026 The distcheck Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/golang-dep-rework/distcheck/dist"
)

const applyShortHelp = `Run a sequence of staged edits, with undo, against one suite`
const applyLongHelp = `
Apply loads target's existing notes and then replays a comma-separated
sequence of operations against one in-memory SuiteNote before writing
the result back, demonstrating the undo journal within a single staging
session:

  upgrade:<from-dir>:<source>   stage an UpgradeSource
  remove:<source>               stage a RemoveSource
  undo                           pop the most recent staged operation

Nothing is written to target until every operation has been replayed
successfully; a failure midway leaves target untouched.
`

type applyCommand struct{}

func (cmd *applyCommand) Name() string      { return "apply" }
func (cmd *applyCommand) Args() string      { return "<target-dir> <op>[,<op>...]" }
func (cmd *applyCommand) ShortHelp() string { return applyShortHelp }
func (cmd *applyCommand) LongHelp() string  { return applyLongHelp }
func (cmd *applyCommand) Register(*flag.FlagSet) {}

func (cmd *applyCommand) Run(c *ctx, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("apply requires <target-dir> <op>[,<op>...]")
	}
	targetDir := args[0]
	ops := strings.Split(args[1], ",")

	arches := c.arches(nil)
	if arches == nil {
		return fmt.Errorf("no architectures configured: pass -config pointing at a distcheck.toml with [catalogue] arches")
	}

	target, err := dist.ReadDirectory(targetDir, arches)
	if err != nil {
		return err
	}
	sn := dist.LoadSuiteNote(target)

	for _, op := range ops {
		op = strings.TrimSpace(op)
		fields := strings.SplitN(op, ":", 3)
		switch fields[0] {
		case "upgrade":
			if len(fields) != 3 {
				return fmt.Errorf("malformed upgrade op %q, want upgrade:<from-dir>:<source>", op)
			}
			from, err := dist.ReadDirectory(fields[1], arches)
			if err != nil {
				return err
			}
			if err := sn.UpgradeSource(from, fields[2]); err != nil {
				return err
			}
			fmt.Fprintf(c.Out, "staged upgrade of %s\n", fields[2])
		case "remove":
			if len(fields) != 2 {
				return fmt.Errorf("malformed remove op %q, want remove:<source>", op)
			}
			if err := sn.RemoveSource(fields[1]); err != nil {
				return err
			}
			fmt.Fprintf(c.Out, "staged removal of %s\n", fields[1])
		case "undo":
			if !sn.CanUndo() {
				return fmt.Errorf("nothing to undo")
			}
			if err := sn.UndoChange(); err != nil {
				return err
			}
			fmt.Fprintln(c.Out, "undid last staged operation")
		default:
			return fmt.Errorf("unknown op %q", op)
		}
	}

	sn.CommitChanges()
	if err := sn.WriteNotes(targetDir); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "committed %d operation(s) to %s\n", len(ops), targetDir)
	return nil
}

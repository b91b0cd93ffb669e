// Copyright 2026 The distcheck Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"path/filepath"

	"github.com/golang-dep-rework/distcheck/internal/config"
	"github.com/golang-dep-rework/distcheck/internal/trace"
)

// ctx carries the per-invocation state every subcommand needs: resolved
// configuration, an optional tracer, and where to print results.
type ctx struct {
	WorkingDir string
	Cfg        *config.Config
	Trace      *trace.Tracer
	Out        io.Writer
	Err        io.Writer
}

func newCtx(workingDir, configPath string, stdout, stderr io.Writer, verbose bool) (*ctx, error) {
	if configPath == "" {
		configPath = filepath.Join(workingDir, config.FileName)
	}
	cfg, err := config.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var tr *trace.Tracer
	if verbose {
		tr = trace.New(stderr)
	}

	return &ctx{
		WorkingDir: workingDir,
		Cfg:        cfg,
		Trace:      tr,
		Out:        stdout,
		Err:        stderr,
	}, nil
}

// arches returns the configured architecture list, or fallback if the config
// file didn't name any (letting a bare invocation work against a single
// ad-hoc architecture without a distcheck.toml).
func (c *ctx) arches(fallback []string) []string {
	if len(c.Cfg.Arches) > 0 {
		return c.Cfg.Arches
	}
	return fallback
}

// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
)

// compileTargetsCmd implements the compile_targets query of the
// build-system script protocol: it reports the ninja targets a builder
// must compile before invoking the suite, as a JSON list. The suite needs
// nothing beyond the targets its test spec already names, so the list is
// empty.
type compileTargetsCmd struct {
	output string
}

func (*compileTargetsCmd) Name() string     { return "compile_targets" }
func (*compileTargetsCmd) Synopsis() string { return "Print extra targets to compile, as a JSON list." }
func (*compileTargetsCmd) Usage() string {
	return `Usage: run_android_wpt compile_targets [-output <file>]

Print the extra ninja targets to build before running the suite.

`
}

func (c *compileTargetsCmd) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.output, "output", "", "File to write the JSON list to instead of stdout.")
}

func (c *compileTargetsCmd) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	w := io.Writer(os.Stdout)
	if c.output != "" {
		f, err := os.Create(c.output)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to create output file:", err)
			return subcommands.ExitFailure
		}
		defer f.Close()
		w = f
	}
	if err := json.NewEncoder(w).Encode([]string{}); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to write targets:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func runCompileTargets(ctx context.Context) int {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(&compileTargetsCmd{}, "")
	flag.Parse()
	return int(subcommands.Execute(ctx))
}

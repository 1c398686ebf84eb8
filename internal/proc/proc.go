// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package proc runs external commands on the host and reports their exit
// status.
package proc

import (
	"bufio"
	"context"
	"io"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/logging"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/shutil"
)

// maxLineLen is the maximum length of a single output line that Run passes
// through to the log. wpt can emit very long lines when dumping expectations.
const maxLineLen = 1024 * 1024

// Run runs an external command, streaming each line of its stdout and stderr
// to the logger in ctx at info level, and returns the command's exit code.
//
// An error is returned only when the command could not be run or did not exit
// on its own (e.g. killed by a signal); a command that runs to completion with
// a non-zero code yields (code, nil) so callers can propagate subprocess
// status verbatim.
func Run(ctx context.Context, name string, args ...string) (int, error) {
	cl := shutil.EscapeSlice(append([]string{name}, args...))
	logging.Infof(ctx, "Running %s", cl)

	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 1, errors.Wrap(err, "failed to open stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 1, errors.Wrap(err, "failed to open stderr pipe")
	}
	if err := cmd.Start(); err != nil {
		return 1, errors.Wrapf(err, "failed running %s", cl)
	}

	var eg errgroup.Group
	eg.Go(func() error { return pumpLines(ctx, stdout) })
	eg.Go(func() error { return pumpLines(ctx, stderr) })
	// Drain the pipes before calling Wait, as required by os/exec.
	pumpErr := eg.Wait()

	if err := cmd.Wait(); err != nil {
		if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() >= 0 {
			return ee.ExitCode(), nil
		}
		return 1, errors.Wrapf(err, "failed running %s", cl)
	}
	if pumpErr != nil {
		return 0, errors.Wrap(pumpErr, "failed to read command output")
	}
	return 0, nil
}

// Output runs an external command and returns its combined stdout and stderr.
// The output collected so far is returned even when the command fails, since
// tool error messages usually arrive on stdout.
func Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cl := shutil.EscapeSlice(append([]string{name}, args...))
	logging.Debugf(ctx, "Running %s", cl)

	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, errors.Wrapf(err, "failed running %s", cl)
	}
	return out, nil
}

func pumpLines(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineLen)
	for sc.Scan() {
		logging.Info(ctx, sc.Text())
	}
	return sc.Err()
}

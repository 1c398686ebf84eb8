// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package proc_test

import (
	"context"
	"strings"
	"testing"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/logging"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/logging/loggingtest"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/proc"
)

func TestRun(t *testing.T) {
	logger := loggingtest.NewLogger(t, logging.LevelInfo)
	ctx := logging.AttachLogger(context.Background(), logger)

	code, err := proc.Run(ctx, "sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if code != 0 {
		t.Errorf("Run returned code %d; want 0", code)
	}

	logs := logger.String()
	for _, want := range []string{"out", "err"} {
		if !strings.Contains(logs, want) {
			t.Errorf("Logs %q don't contain %q", logs, want)
		}
	}
}

func TestRun_ExitCode(t *testing.T) {
	ctx := logging.AttachLogger(context.Background(), loggingtest.NewLogger(t, logging.LevelInfo))

	code, err := proc.Run(ctx, "sh", "-c", "exit 3")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if code != 3 {
		t.Errorf("Run returned code %d; want 3", code)
	}
}

func TestRun_MissingCommand(t *testing.T) {
	ctx := logging.AttachLogger(context.Background(), loggingtest.NewLogger(t, logging.LevelInfo))

	if _, err := proc.Run(ctx, "/does/not/exist"); err == nil {
		t.Error("Run succeeded unexpectedly for missing command")
	}
}

func TestOutput(t *testing.T) {
	ctx := logging.AttachLogger(context.Background(), loggingtest.NewLogger(t, logging.LevelDebug))

	out, err := proc.Output(ctx, "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	if got, want := strings.TrimSpace(string(out)), "hello"; got != want {
		t.Errorf("Output returned %q; want %q", got, want)
	}
}

func TestOutput_Failure(t *testing.T) {
	ctx := logging.AttachLogger(context.Background(), loggingtest.NewLogger(t, logging.LevelDebug))

	// Output should return collected output along with the error.
	out, err := proc.Output(ctx, "sh", "-c", "echo oops; exit 1")
	if err == nil {
		t.Fatal("Output succeeded unexpectedly")
	}
	if got, want := strings.TrimSpace(string(out)), "oops"; got != want {
		t.Errorf("Output returned %q; want %q", got, want)
	}
}

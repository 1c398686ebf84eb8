// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package main implements the run_android_wpt executable, which runs Web
// Platform Tests (WPT) against Chromium browsers on Android.
//
// The executable maps Chromium test-suite flags onto the external WPT
// runner's flags, installs the browser packages under test on an attached
// device, and can boot an Android emulator to run against when configured
// with an AVD. It also implements the build-system script protocol's
// compile_targets query.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/ssh/terminal"
	"golang.org/x/exp/slices"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/adb"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/command"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/logging"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/timing"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/wpt"
)

// orchestrationFlags are the few flags main interprets itself, before the
// full per-product command-line surface exists: the product selects the
// adapter, the AVD flags decide device acquisition, and verbosity selects
// the console log level. The adapter re-parses all of them later along
// with everything else.
type orchestrationFlags struct {
	product   string
	avdConfig string
	window    bool
	verbosity int
}

// splitFlag splits a command-line token of the form -name or -name=value.
// name is empty for tokens that are not flags.
func splitFlag(arg string) (name, val string, hasVal bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return "", "", false
	}
	name = strings.TrimLeft(arg, "-")
	if j := strings.IndexByte(name, '='); j >= 0 {
		return name[:j], name[j+1:], true
	}
	return name, "", false
}

func boolish(val string, hasVal bool) bool {
	if !hasVal {
		return true
	}
	b, err := strconv.ParseBool(val)
	return err == nil && b
}

// scanOrchestrationFlags extracts orchestration flags from args without
// validating anything else; unknown flags are the adapter parser's
// business.
func scanOrchestrationFlags(args []string) orchestrationFlags {
	var fl orchestrationFlags
	for i := 0; i < len(args); i++ {
		name, val, hasVal := splitFlag(args[i])
		if name == "" {
			continue
		}
		if !hasVal && (name == "product" || name == "avd-config") {
			if i+1 >= len(args) {
				break
			}
			i++
			val = args[i]
		}
		switch name {
		case "product":
			fl.product = val
		case "avd-config":
			fl.avdConfig = val
		case "emulator-window":
			fl.window = boolish(val, hasVal)
		case "verbose", "v":
			if boolish(val, hasVal) {
				fl.verbosity++
			}
		}
	}
	return fl
}

// installSignalHandler arranges for the terminal state to be restored when
// a signal kills the process mid-run; an interrupted emulator or adb can
// leave the terminal in a raw state.
func installSignalHandler() {
	var st *terminal.State
	fd := int(os.Stdin.Fd())
	if terminal.IsTerminal(fd) {
		var err error
		if st, err = terminal.GetState(fd); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to get terminal state:", err)
		}
	}
	command.InstallSignalHandler(os.Stderr, func(os.Signal) {
		if st != nil {
			terminal.Restore(fd, st)
		}
	})
}

// doMain implements the main body of the program. It's a separate function
// so that its deferred functions run before os.Exit makes the program exit
// immediately.
func doMain() int {
	// The build system queries extra compile targets through a subcommand
	// before any test run happens.
	if slices.Contains(os.Args[1:], "compile_targets") {
		return runCompileTargets(context.Background())
	}

	fl := scanOrchestrationFlags(os.Args[1:])

	level := logging.LevelInfo
	if fl.verbosity >= 2 {
		level = logging.LevelDebug
	}
	logger := logging.NewSinkLogger(level, false, logging.NewWriterSink(os.Stdout))
	ctx := logging.AttachLogger(context.Background(), logger)

	timingLog := timing.NewLog()
	ctx = timing.NewContext(ctx, timingLog)
	defer func() {
		if timingLog.Empty() {
			return
		}
		var b bytes.Buffer
		if err := timingLog.WritePretty(&b); err == nil {
			logging.Debug(ctx, "Timing:\n"+strings.TrimRight(b.String(), "\n"))
		}
	}()

	installSignalHandler()

	if fl.product == "" {
		return command.WriteError(os.Stderr, errors.New("the -product command line argument is required"))
	}
	product, err := wpt.ParseProduct(fl.product)
	if err != nil {
		return command.WriteError(os.Stderr, err)
	}
	checkout, err := wpt.FindCheckout()
	if err != nil {
		return command.WriteError(os.Stderr, err)
	}

	cl := adb.New("")
	// The runner and the emulator shell out to adb themselves; make sure
	// they find the same binary this process uses.
	adbDir, err := cl.Dir()
	if err != nil {
		return command.WriteError(os.Stderr, err)
	}
	os.Setenv("PATH", adbDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	session, err := wpt.AcquireDevice(ctx, cl, fl.avdConfig, fl.window)
	if err != nil {
		return command.WriteError(os.Stderr, err)
	}
	if session == nil {
		logging.Info(ctx, "There are no devices attached to this host. Exiting...")
		return 0
	}
	defer func() {
		if err := session.Close(ctx); err != nil {
			logging.Infof(ctx, "Failed to release the device: %v", err)
		}
	}()

	adapter := wpt.NewAdapter(product, session.Device, checkout)
	if err := adapter.ParseArgs(os.Args[1:]); err != nil {
		return command.WriteError(os.Stderr, err)
	}
	code, err := adapter.Run(ctx)
	if err != nil {
		command.WriteError(os.Stderr, err)
	}
	return code
}

func main() {
	os.Exit(doMain())
}

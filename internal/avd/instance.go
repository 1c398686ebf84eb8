// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package avd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/logging"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/shutil"
)

// stopGracePeriod is how long Stop waits after SIGTERM before escalating
// to SIGKILL.
const stopGracePeriod = 5 * time.Second

// maxLineLen is the maximum length of a single emulator output line that
// gets passed through to the log.
const maxLineLen = 1024 * 1024

var clk = clock.NewClock()

// Instance is a single emulator process managed by this run.
type Instance struct {
	cfg         *Config
	workDir     string
	consolePort int

	cmd     *exec.Cmd
	exited  chan struct{} // closed once the process has been reaped
	stopped bool
}

// CreateInstance allocates a console port and a scratch working directory
// for a new emulator instance. The instance is not started yet; Stop must
// be called even if Start is never reached, to release the directory.
func (c *Config) CreateInstance(ctx context.Context) (*Instance, error) {
	port, err := findConsolePort()
	if err != nil {
		return nil, err
	}
	workDir := filepath.Join(os.TempDir(), "wpt_emulator_"+uuid.New().String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create emulator work dir")
	}
	i := &Instance{
		cfg:         c,
		workDir:     workDir,
		consolePort: port,
		exited:      make(chan struct{}),
	}
	logging.Debugf(ctx, "Created emulator instance %s (work dir %s)", i.Serial(), workDir)
	return i, nil
}

// Serial returns the serial under which adb sees this instance.
func (i *Instance) Serial() string {
	return fmt.Sprintf("emulator-%d", i.consolePort)
}

// StartOpts configures how an emulator instance is launched.
type StartOpts struct {
	// Window enables the graphical window instead of headless operation.
	Window bool
}

// Start launches the emulator process. It returns as soon as the process
// is running; callers should wait for the device to boot via adb.
func (i *Instance) Start(ctx context.Context, opts StartOpts) error {
	if i.cmd != nil {
		return errors.New("emulator already started")
	}

	args := []string{
		"-avd", i.cfg.AvdName,
		"-port", strconv.Itoa(i.consolePort),
		"-writable-system",
		"-no-boot-anim",
		"-no-snapshot",
	}
	if !opts.Window {
		args = append(args, "-no-window")
	}

	logging.Infof(ctx, "Starting emulator %s (serial %s)", i.cfg.AvdName, i.Serial())
	logging.Debugf(ctx, "Running %s",
		shutil.EscapeSlice(append([]string{i.cfg.emulatorPath()}, args...)))

	cmd := exec.Command(i.cfg.emulatorPath(), args...)
	cmd.Dir = i.workDir
	cmd.Env = append(os.Environ(), "ANDROID_AVD_HOME="+i.cfg.AvdHome)
	// Run the emulator in its own session so Stop can take down the
	// helper processes it forks along with it.
	cmd.SysProcAttr = &unix.SysProcAttr{Setsid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to open stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.Wrap(err, "failed to open stderr pipe")
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start emulator")
	}
	i.cmd = cmd

	var eg errgroup.Group
	eg.Go(func() error { return i.pump(ctx, stdout) })
	eg.Go(func() error { return i.pump(ctx, stderr) })
	go func() {
		// Drain the pipes before calling Wait, as required by os/exec.
		eg.Wait()
		if err := cmd.Wait(); err != nil {
			logging.Debugf(ctx, "Emulator %s exited: %v", i.Serial(), err)
		}
		close(i.exited)
	}()
	return nil
}

// The emulator is chatty, and its output only matters when debugging boot
// problems, so it goes to the debug log.
func (i *Instance) pump(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineLen)
	for sc.Scan() {
		logging.Debugf(ctx, "emulator: %s", sc.Text())
	}
	return sc.Err()
}

// Stop terminates the emulator session and removes the instance's working
// directory. It first asks nicely with SIGTERM and escalates to SIGKILL if
// the session is still around after stopGracePeriod. Stop is safe to call
// on an instance that was never started.
func (i *Instance) Stop(ctx context.Context) error {
	defer os.RemoveAll(i.workDir)
	if i.cmd == nil || i.stopped {
		return nil
	}
	i.stopped = true

	logging.Infof(ctx, "Stopping emulator %s", i.Serial())
	sid := i.cmd.Process.Pid // session ID matches PID thanks to Setsid
	killSession(sid, unix.SIGTERM)

	tm := clk.NewTimer(stopGracePeriod)
	defer tm.Stop()
	select {
	case <-i.exited:
		return nil
	case <-tm.C():
	case <-ctx.Done():
	}

	killSession(sid, unix.SIGKILL)
	select {
	case <-i.exited:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "emulator %s did not exit", i.Serial())
	}
}

// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package adb

import (
	"context"
	"strings"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/logging"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/timing"
)

// clk is used to wait in boot polling loops. It is replaced in unit tests.
var clk = clock.NewClock()

// bootPollInterval is the delay between boot condition checks.
const bootPollInterval = time.Second

// Device is a handle for a single device attached to the adb server.
type Device struct {
	client *Client
	serial string

	// State is the device state as reported by "adb devices", e.g. "device"
	// or "offline". It reflects the state at enumeration time.
	State string
}

// Serial returns the device's serial number.
func (d *Device) Serial() string { return d.serial }

func (d *Device) String() string { return d.serial }

func (d *Device) run(ctx context.Context, args ...string) ([]byte, error) {
	return d.client.run(ctx, append([]string{"-s", d.serial}, args...)...)
}

// Install installs an APK file onto the device, replacing an existing package
// and allowing version downgrades as needed for locally built APKs.
func (d *Device) Install(ctx context.Context, apkPath string) error {
	logging.Infof(ctx, "Installing %s on %s", apkPath, d.serial)
	out, err := d.run(ctx, "install", "-r", "-d", apkPath)
	if err != nil {
		return errors.Wrapf(err, "failed to install %s", apkPath)
	}
	if !strings.Contains(string(out), "Success") {
		return errors.Errorf("failed to install %s: %s", apkPath, strings.TrimSpace(string(out)))
	}
	return nil
}

// Uninstall removes a package from the device.
func (d *Device) Uninstall(ctx context.Context, pkg string) error {
	logging.Infof(ctx, "Uninstalling %s from %s", pkg, d.serial)
	out, err := d.run(ctx, "uninstall", pkg)
	if err != nil {
		return errors.Wrapf(err, "failed to uninstall %s", pkg)
	}
	if !strings.Contains(string(out), "Success") {
		return errors.Errorf("failed to uninstall %s: %s", pkg, strings.TrimSpace(string(out)))
	}
	return nil
}

// Shell runs a shell command on the device and returns its output with
// surrounding whitespace trimmed.
func (d *Device) Shell(ctx context.Context, args ...string) (string, error) {
	out, err := d.run(ctx, append([]string{"shell"}, args...)...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetProp returns an Android system property.
func (d *Device) GetProp(ctx context.Context, name string) (string, error) {
	return d.Shell(ctx, "getprop", name)
}

// WaitUntilFullyBooted blocks until the device finished booting: it is in
// the "device" state, the boot animation completed, and the package manager
// responds. Emulators report the "device" state well before the system is
// usable, so all three checks are needed.
func (d *Device) WaitUntilFullyBooted(ctx context.Context, timeout time.Duration) error {
	ctx, st := timing.Start(ctx, "wait_until_fully_booted")
	defer st.End()

	conds := []struct {
		name  string
		ready func(ctx context.Context) bool
	}{
		{"device state", d.stateReady},
		{"sys.boot_completed", d.bootCompleted},
		{"package manager", d.packageManagerReady},
	}

	start := clk.Now()
	for _, c := range conds {
		logged := false
		for !c.ready(ctx) {
			if !logged {
				logging.Debugf(ctx, "Waiting for %s on %s", c.name, d.serial)
				logged = true
			}
			if clk.Now().Sub(start) > timeout {
				return errors.Errorf("device %s not fully booted after %v: still waiting for %s", d.serial, timeout, c.name)
			}
			t := clk.NewTimer(bootPollInterval)
			select {
			case <-ctx.Done():
				t.Stop()
				return errors.Wrap(ctx.Err(), "failed waiting for device boot")
			case <-t.C():
			}
		}
	}
	return nil
}

func (d *Device) stateReady(ctx context.Context) bool {
	out, err := d.run(ctx, "get-state")
	return err == nil && strings.TrimSpace(string(out)) == stateDevice
}

func (d *Device) bootCompleted(ctx context.Context) bool {
	v, err := d.GetProp(ctx, "sys.boot_completed")
	return err == nil && v == "1"
}

func (d *Device) packageManagerReady(ctx context.Context) bool {
	out, err := d.Shell(ctx, "pm", "path", "android")
	return err == nil && strings.Contains(out, "package:")
}

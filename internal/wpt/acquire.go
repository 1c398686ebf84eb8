// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package wpt

import (
	"context"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/adb"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/avd"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/logging"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/timing"
)

// Session is a successfully acquired target device and, when this process
// booted one, the emulator instance behind it.
type Session struct {
	Device *adb.Device

	inst *avd.Instance
}

// Close releases the session. An emulator booted by AcquireDevice is
// stopped; physical devices are left untouched.
func (s *Session) Close(ctx context.Context) error {
	if s.inst != nil {
		return s.inst.Stop(ctx)
	}
	return nil
}

// AcquireDevice returns the device to test on, booting a fresh emulator
// first when avdConfigPath is non-empty. The first healthy attached device
// wins.
//
// A nil session with a nil error means no healthy device is attached; the
// caller reports that and stops, it is not an error. The caller must Close
// a non-nil session.
//
// TODO: When choosing among several devices, make sure the abi matches
// the target build.
func AcquireDevice(ctx context.Context, cl *adb.Client, avdConfigPath string, window bool) (*Session, error) {
	var inst *avd.Instance
	if avdConfigPath != "" {
		var err error
		if inst, err = bootEmulator(ctx, cl, avdConfigPath, window); err != nil {
			return nil, err
		}
	}

	devs, err := cl.HealthyDevices(ctx)
	if err != nil {
		if inst != nil {
			stopInstance(ctx, inst)
		}
		return nil, err
	}
	if len(devs) == 0 {
		if inst != nil {
			stopInstance(ctx, inst)
		}
		return nil, nil
	}
	return &Session{Device: devs[0], inst: inst}, nil
}

// bootEmulator brings up the emulator described by the config at cfgPath
// and waits for it to boot fully. On failure the started instance is
// already stopped.
func bootEmulator(ctx context.Context, cl *adb.Client, cfgPath string, window bool) (*avd.Instance, error) {
	ctx, stg := timing.Start(ctx, "boot_emulator")
	defer stg.End()

	cfg, err := avd.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	logging.Infof(ctx, "Installing emulator from %s", cfgPath)
	if err := cfg.Install(ctx); err != nil {
		return nil, err
	}
	inst, err := cfg.CreateInstance(ctx)
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			stopInstance(ctx, inst)
		}
	}()
	if err := inst.Start(ctx, avd.StartOpts{Window: window}); err != nil {
		return nil, err
	}
	d := cl.Device(inst.Serial())
	if err := d.WaitUntilFullyBooted(ctx, cfg.BootTimeout()); err != nil {
		return nil, errors.Wrap(err, "emulator did not boot")
	}
	ok = true
	return inst, nil
}

func stopInstance(ctx context.Context, inst *avd.Instance) {
	if err := inst.Stop(ctx); err != nil {
		logging.Infof(ctx, "Failed to stop emulator: %v", err)
	}
}

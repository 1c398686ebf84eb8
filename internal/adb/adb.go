// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package adb wraps the Android Debug Bridge command-line tool to enumerate
// attached devices and manipulate packages on them.
package adb

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/proc"
)

// runFunc invokes an external binary and returns its combined output.
// Client uses it for all adb invocations; tests replace it with a fake.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client runs a fixed adb binary.
type Client struct {
	path   string
	runCmd runFunc
}

// New returns a Client for the given adb binary. If path is empty, $ADB_PATH
// is consulted, falling back to "adb" resolved through $PATH.
func New(path string) *Client {
	if path == "" {
		path = os.Getenv("ADB_PATH")
	}
	if path == "" {
		path = "adb"
	}
	return &Client{path: path, runCmd: proc.Output}
}

// Path returns the path used to invoke adb.
func (c *Client) Path() string { return c.path }

// Dir returns the directory containing the adb binary, resolving it through
// $PATH if necessary. The wpt runner wants this directory prepended to $PATH
// so its own device tooling finds the same adb.
func (c *Client) Dir() (string, error) {
	p := c.path
	if !strings.ContainsRune(p, os.PathSeparator) {
		var err error
		if p, err = exec.LookPath(p); err != nil {
			return "", errors.Wrapf(err, "failed to locate %s", c.path)
		}
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.Dir(abs), nil
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	return c.runCmd(ctx, c.path, args...)
}

// Device returns a handle for the device with the given serial. No adb
// traffic happens; the device may not exist yet.
func (c *Client) Device(serial string) *Device {
	return &Device{client: c, serial: serial}
}

// Devices enumerates devices currently known to the adb server, including
// unhealthy ones (offline, unauthorized).
func (c *Client) Devices(ctx context.Context) ([]*Device, error) {
	out, err := c.run(ctx, "devices", "-l")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list devices")
	}
	return parseDevices(c, string(out)), nil
}

// HealthyDevices enumerates devices in the "device" state, i.e. ones that
// completed the adb handshake and accept commands.
func (c *Client) HealthyDevices(ctx context.Context) ([]*Device, error) {
	devs, err := c.Devices(ctx)
	if err != nil {
		return nil, err
	}
	var healthy []*Device
	for _, d := range devs {
		if d.State == stateDevice {
			healthy = append(healthy, d)
		}
	}
	return healthy, nil
}

const stateDevice = "device"

// parseDevices extracts device serials and states from "adb devices -l"
// output. The adb server may print daemon startup noise before the header
// line, so everything up to and including the header is skipped.
func parseDevices(c *Client, out string) []*Device {
	var devs []*Device
	seenHeader := false
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !seenHeader {
			if strings.HasPrefix(line, "List of devices") {
				seenHeader = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		devs = append(devs, &Device{client: c, serial: fields[0], State: fields[1]})
	}
	return devs
}

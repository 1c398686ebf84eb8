// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package avd manages Android Virtual Device emulator instances.
//
// A Config describes an already-provisioned AVD: the unpacked emulator
// package and the AVD home directory holding the named virtual device.
// Provisioning (downloading emulator builds and system images) is handled
// by other tooling; this package only verifies the pieces are on disk,
// starts emulator processes, and tears them down.
package avd

import (
	"context"
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
)

// DefaultBootTimeout is the boot timeout used when a config doesn't
// specify one. Full boots of fresh instances on bots routinely take
// several minutes.
const DefaultBootTimeout = 5 * time.Minute

// Config describes an AVD and the emulator build used to run it.
// It is loaded from a YAML file passed via --avd-config.
type Config struct {
	// EmulatorDir is the root of the unpacked emulator package.
	// The emulator binary lives at emulator/emulator under it.
	EmulatorDir string `yaml:"emulator_dir"`
	// AvdName names the virtual device inside AvdHome.
	AvdName string `yaml:"avd_name"`
	// AvdHome is the ANDROID_AVD_HOME directory containing
	// <avd_name>.avd and <avd_name>.ini.
	AvdHome string `yaml:"avd_home"`
	// SystemImageDir optionally points at the system image the AVD
	// boots. When set, Install verifies it exists.
	SystemImageDir string `yaml:"system_image_dir,omitempty"`
	// BootTimeoutSec bounds how long a fresh instance may take to
	// become fully booted. Zero means DefaultBootTimeout.
	BootTimeoutSec int `yaml:"boot_timeout_sec,omitempty"`
}

// LoadConfig reads a YAML AVD config from path.
func LoadConfig(path string) (*Config, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	if cfg.EmulatorDir == "" {
		return nil, errors.Errorf("%s: emulator_dir is required", path)
	}
	if cfg.AvdName == "" {
		return nil, errors.Errorf("%s: avd_name is required", path)
	}
	if cfg.AvdHome == "" {
		return nil, errors.Errorf("%s: avd_home is required", path)
	}
	return &cfg, nil
}

// BootTimeout returns the configured boot timeout, or DefaultBootTimeout
// if the config doesn't carry one.
func (c *Config) BootTimeout() time.Duration {
	if c.BootTimeoutSec > 0 {
		return time.Duration(c.BootTimeoutSec) * time.Second
	}
	return DefaultBootTimeout
}

func (c *Config) emulatorPath() string {
	return filepath.Join(c.EmulatorDir, "emulator", "emulator")
}

// Install verifies that the emulator package and the AVD this config
// names are present on disk.
func (c *Config) Install(ctx context.Context) error {
	if fi, err := os.Stat(c.emulatorPath()); err != nil {
		return errors.Wrapf(err, "emulator binary missing from package %s", c.EmulatorDir)
	} else if fi.IsDir() {
		return errors.Errorf("emulator binary %s is a directory", c.emulatorPath())
	}
	avdDir := filepath.Join(c.AvdHome, c.AvdName+".avd")
	if fi, err := os.Stat(avdDir); err != nil {
		return errors.Wrapf(err, "AVD %s missing from %s", c.AvdName, c.AvdHome)
	} else if !fi.IsDir() {
		return errors.Errorf("%s is not a directory", avdDir)
	}
	if _, err := os.Stat(filepath.Join(c.AvdHome, c.AvdName+".ini")); err != nil {
		return errors.Wrapf(err, "AVD %s has no ini file in %s", c.AvdName, c.AvdHome)
	}
	if c.SystemImageDir != "" {
		if _, err := os.Stat(c.SystemImageDir); err != nil {
			return errors.Wrap(err, "system image missing")
		}
	}
	return nil
}

// Emulator console ports are even numbers starting at 5554. adb claims
// the next odd port, and the device serial is emulator-<console port>.
const (
	consolePortFirst = 5554
	consolePortLast  = 5584
)

func portFree(port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort("localhost", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	ln.Close()
	return true
}

func findConsolePort() (int, error) {
	for port := consolePortFirst; port <= consolePortLast; port += 2 {
		if portFree(port) && portFree(port+1) {
			return port, nil
		}
	}
	return 0, errors.Errorf("no free emulator console port in [%d, %d]",
		consolePortFirst, consolePortLast)
}

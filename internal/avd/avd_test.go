// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package avd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/testutil"
)

func TestLoadConfig(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	if err := testutil.WriteFiles(td, map[string]string{
		"avd.yaml": `emulator_dir: /opt/emulator
avd_name: generic_android28
avd_home: /data/avd
system_image_dir: /opt/system-images/android-28
boot_timeout_sec: 120
`,
	}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(filepath.Join(td, "avd.yaml"))
	if err != nil {
		t.Fatal("LoadConfig failed: ", err)
	}
	want := &Config{
		EmulatorDir:    "/opt/emulator",
		AvdName:        "generic_android28",
		AvdHome:        "/data/avd",
		SystemImageDir: "/opt/system-images/android-28",
		BootTimeoutSec: 120,
	}
	if diff := cmp.Diff(cfg, want); diff != "" {
		t.Errorf("LoadConfig returned unexpected config (-got +want):\n%s", diff)
	}
	if got, want := cfg.BootTimeout(), 2*time.Minute; got != want {
		t.Errorf("BootTimeout() = %v; want %v", got, want)
	}
}

func TestLoadConfig_DefaultBootTimeout(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	if err := testutil.WriteFiles(td, map[string]string{
		"avd.yaml": `emulator_dir: /opt/emulator
avd_name: foo
avd_home: /data/avd
`,
	}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(filepath.Join(td, "avd.yaml"))
	if err != nil {
		t.Fatal("LoadConfig failed: ", err)
	}
	if got := cfg.BootTimeout(); got != DefaultBootTimeout {
		t.Errorf("BootTimeout() = %v; want %v", got, DefaultBootTimeout)
	}
}

func TestLoadConfig_MissingFields(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	if err := testutil.WriteFiles(td, map[string]string{
		"no_name.yaml": "emulator_dir: /opt/emulator\navd_home: /data/avd\n",
		"bad.yaml":     "{not yaml",
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(filepath.Join(td, "no_name.yaml")); err == nil {
		t.Error("LoadConfig unexpectedly succeeded without avd_name")
	}
	if _, err := LoadConfig(filepath.Join(td, "bad.yaml")); err == nil {
		t.Error("LoadConfig unexpectedly succeeded on malformed YAML")
	}
	if _, err := LoadConfig(filepath.Join(td, "missing.yaml")); err == nil {
		t.Error("LoadConfig unexpectedly succeeded on nonexistent file")
	}
}

func TestConfigInstall(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	if err := testutil.WriteFiles(td, map[string]string{
		"emu/emulator/emulator":  "#!/bin/sh\n",
		"avd/foo.avd/config.ini": "hw.device.name=pixel\n",
		"avd/foo.ini":            "path=" + filepath.Join(td, "avd/foo.avd") + "\n",
		"sysimg/system.img":      "",
	}); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{
		EmulatorDir:    filepath.Join(td, "emu"),
		AvdName:        "foo",
		AvdHome:        filepath.Join(td, "avd"),
		SystemImageDir: filepath.Join(td, "sysimg"),
	}
	if err := cfg.Install(context.Background()); err != nil {
		t.Error("Install failed: ", err)
	}
}

func TestConfigInstall_Missing(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	if err := testutil.WriteFiles(td, map[string]string{
		"emu/emulator/emulator":  "#!/bin/sh\n",
		"avd/foo.avd/config.ini": "",
		"avd/foo.ini":            "",
	}); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name string
		cfg  Config
	}{
		{"no emulator", Config{EmulatorDir: filepath.Join(td, "nonexistent"), AvdName: "foo", AvdHome: filepath.Join(td, "avd")}},
		{"no avd", Config{EmulatorDir: filepath.Join(td, "emu"), AvdName: "bar", AvdHome: filepath.Join(td, "avd")}},
		{"no system image", Config{EmulatorDir: filepath.Join(td, "emu"), AvdName: "foo", AvdHome: filepath.Join(td, "avd"), SystemImageDir: filepath.Join(td, "nonexistent")}},
	} {
		if err := tc.cfg.Install(context.Background()); err == nil {
			t.Errorf("Install unexpectedly succeeded for case %q", tc.name)
		}
	}
}

// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package apk inspects Android application packages on the host.
package apk

import (
	"context"
	"os"
	"regexp"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/proc"
)

// runCmd invokes aapt. It is replaced in unit tests.
var runCmd = proc.Output

// badgingRE matches the package declaration line of "aapt dump badging".
var badgingRE = regexp.MustCompile(`(?m)^package: .*\bname='([^']*)'`)

// aaptPath returns the path of the aapt tool, honoring $AAPT_PATH.
func aaptPath() string {
	if p := os.Getenv("AAPT_PATH"); p != "" {
		return p
	}
	return "aapt"
}

// PackageName returns the package name declared in the APK's manifest.
func PackageName(ctx context.Context, apkPath string) (string, error) {
	out, err := runCmd(ctx, aaptPath(), "dump", "badging", apkPath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to dump badging of %s", apkPath)
	}
	m := badgingRE.FindSubmatch(out)
	if m == nil {
		return "", errors.Errorf("no package name in aapt output for %s", apkPath)
	}
	return string(m[1]), nil
}

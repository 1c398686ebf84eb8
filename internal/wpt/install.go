// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package wpt

import (
	"context"
	"regexp"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/logging"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/scoped"
)

// maybeInstallAPK installs apkPath on the device and schedules the matching
// uninstall on st before returning, so an installed package can never be
// left behind. An empty apkPath degrades the whole thing to a no-op. If
// expectedPkg is non-empty and the APK resolves to a different package
// name, the install fails before touching the device.
func (a *Adapter) maybeInstallAPK(ctx context.Context, st *scoped.Stack, apkPath, expectedPkg string) error {
	if apkPath == "" {
		return nil
	}
	pkg, err := a.packageName(ctx, apkPath)
	if err != nil {
		return err
	}
	if expectedPkg != "" && pkg != expectedPkg {
		return errors.Errorf("%s has incorrect package name: %s, expected %s", apkPath, pkg, expectedPkg)
	}
	logging.Infof(ctx, "Will install %s at %s", pkg, apkPath)
	if err := a.device.Install(ctx, apkPath); err != nil {
		return err
	}
	st.Push(func(ctx context.Context) error { return a.device.Uninstall(ctx, pkg) })
	return nil
}

// dumpsys webviewupdate reports the active provider with a line like
//   Current WebView package (name, version): (com.google.android.webview, 91.0.4472.101)
var webViewProviderRE = regexp.MustCompile(`Current WebView package \(name, version\): \(([^,]+),`)

func (a *Adapter) currentWebViewProvider(ctx context.Context) (string, error) {
	out, err := a.device.Shell(ctx, "dumpsys", "webviewupdate")
	if err != nil {
		return "", err
	}
	m := webViewProviderRE.FindStringSubmatch(out)
	if m == nil {
		return "", errors.New("failed to parse the current WebView provider from dumpsys webviewupdate")
	}
	return m[1], nil
}

func (a *Adapter) setWebViewProvider(ctx context.Context, pkg string) error {
	logging.Debugf(ctx, "Switching WebView provider to %s", pkg)
	if _, err := a.device.Shell(ctx, "cmd", "webview", "set-webview-implementation", pkg); err != nil {
		return errors.Wrapf(err, "failed to switch WebView provider to %s", pkg)
	}
	return nil
}

// useWebViewProvider installs apkPath and makes it the platform's WebView
// implementation for the duration of the run. The previously active
// provider is recorded first and restored on release, before the package
// is uninstalled. An empty apkPath is a no-op.
func (a *Adapter) useWebViewProvider(ctx context.Context, st *scoped.Stack, apkPath string) error {
	if apkPath == "" {
		return nil
	}
	logging.Infof(ctx, "Will install WebView apk at %s", apkPath)
	pkg, err := a.packageName(ctx, apkPath)
	if err != nil {
		return err
	}
	prev, err := a.currentWebViewProvider(ctx)
	if err != nil {
		return err
	}
	if err := a.device.Install(ctx, apkPath); err != nil {
		return err
	}
	st.Push(func(ctx context.Context) error { return a.device.Uninstall(ctx, pkg) })
	if err := a.setWebViewProvider(ctx, pkg); err != nil {
		return err
	}
	st.Push(func(ctx context.Context) error { return a.setWebViewProvider(ctx, prev) })
	return nil
}

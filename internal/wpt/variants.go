// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package wpt

import (
	"context"
	"flag"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/logging"
	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/scoped"
)

// defaultWebViewShellPackage is the shell assumed to be present on the
// device when no shell APK is supplied.
const defaultWebViewShellPackage = "org.chromium.webview_shell"

// Packages the WebLayer shell and support APKs must resolve to.
const (
	webLayerShellPackage   = "org.chromium.weblayer.shell"
	webLayerSupportPackage = "org.chromium.weblayer.support"
)

// chromeVariant tests the full Chrome browser.
type chromeVariant struct {
	a *Adapter
}

func (v *chromeVariant) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(&v.a.opts.ChromeAPK, "chrome-apk", "", "Chrome apk to install.")
	fs.StringVar(&v.a.opts.ChromePackageName, "chrome-package-name", "",
		"The package name of Chrome to test, defaults to that of the compiled Chrome apk.")
}

func (v *chromeVariant) validate() error {
	if v.a.opts.ChromePackageName == "" && v.a.opts.ChromeAPK == "" {
		return errors.New("either the -chrome-package-name or -chrome-apk command line arguments must be used")
	}
	return nil
}

func (v *chromeVariant) installs(ctx context.Context, st *scoped.Stack) error {
	return v.a.maybeInstallAPK(ctx, st, v.a.opts.ChromeAPK, "")
}

func (v *chromeVariant) expectationsPath() string {
	return v.a.checkout.ExpectationsPath(ChromeAndroid)
}

func (v *chromeVariant) tailArgs(ctx context.Context) ([]string, error) {
	pkg := v.a.opts.ChromePackageName
	if pkg == "" {
		var err error
		if pkg, err = v.a.packageName(ctx, v.a.opts.ChromeAPK); err != nil {
			return nil, err
		}
		logging.Infof(ctx, "Using Chrome apk's default package %s", pkg)
		v.a.opts.ChromePackageName = pkg
	}
	return []string{"--package-name", pkg, string(ChromeAndroid)}, nil
}

// webViewVariant tests WebView through the system WebView shell.
type webViewVariant struct {
	adapter  *Adapter
	shellPkg string // lazily resolved, see shellPackage
}

func (v *webViewVariant) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(&v.adapter.opts.SystemWebViewShell, "system-webview-shell", "",
		"System WebView Shell apk to install. If not specified the shell already on the device is used.")
	fs.StringVar(&v.adapter.opts.WebViewProvider, "webview-provider", "", "WebView provider apk to install.")
}

func (v *webViewVariant) validate() error { return nil }

// shellPackage resolves the shell package under test, from the supplied
// APK or the on-device default. The result is cached since it is needed
// both when installing and when assembling the argument tail.
func (v *webViewVariant) shellPackage(ctx context.Context) (string, error) {
	if v.shellPkg != "" {
		return v.shellPkg, nil
	}
	if v.adapter.opts.SystemWebViewShell == "" {
		v.shellPkg = defaultWebViewShellPackage
		return v.shellPkg, nil
	}
	pkg, err := v.adapter.packageName(ctx, v.adapter.opts.SystemWebViewShell)
	if err != nil {
		return "", err
	}
	v.shellPkg = pkg
	return pkg, nil
}

func (v *webViewVariant) installs(ctx context.Context, st *scoped.Stack) error {
	pkg, err := v.shellPackage(ctx)
	if err != nil {
		return err
	}
	if err := v.adapter.maybeInstallAPK(ctx, st, v.adapter.opts.SystemWebViewShell, pkg); err != nil {
		return err
	}
	return v.adapter.useWebViewProvider(ctx, st, v.adapter.opts.WebViewProvider)
}

func (v *webViewVariant) expectationsPath() string {
	return v.adapter.checkout.ExpectationsPath(AndroidWebView)
}

func (v *webViewVariant) tailArgs(ctx context.Context) ([]string, error) {
	pkg, err := v.shellPackage(ctx)
	if err != nil {
		return nil, err
	}
	return []string{"--package-name", pkg, string(AndroidWebView)}, nil
}

// webLayerVariant tests WebLayer through its shell. The runner derives the
// packages itself, so the tail carries no --package-name.
type webLayerVariant struct {
	a *Adapter
}

func (v *webLayerVariant) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(&v.a.opts.WebLayerShell, "weblayer-shell", "", "WebLayer Shell apk to install.")
	fs.StringVar(&v.a.opts.WebLayerSupport, "weblayer-support", "", "WebLayer Support apk to install.")
	fs.StringVar(&v.a.opts.WebViewProvider, "webview-provider", "", "Webview provider apk to install.")
}

func (v *webLayerVariant) validate() error { return nil }

func (v *webLayerVariant) installs(ctx context.Context, st *scoped.Stack) error {
	if err := v.a.maybeInstallAPK(ctx, st, v.a.opts.WebLayerShell, webLayerShellPackage); err != nil {
		return err
	}
	if err := v.a.maybeInstallAPK(ctx, st, v.a.opts.WebLayerSupport, webLayerSupportPackage); err != nil {
		return err
	}
	return v.a.useWebViewProvider(ctx, st, v.a.opts.WebViewProvider)
}

func (v *webLayerVariant) expectationsPath() string {
	return v.a.checkout.ExpectationsPath(AndroidWebLayer)
}

func (v *webLayerVariant) tailArgs(ctx context.Context) ([]string, error) {
	return []string{string(AndroidWebLayer)}, nil
}

// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package wpt

import (
	"os"
	"path/filepath"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
)

// Checkout is the root directory of a Chromium source checkout. All tool
// and data paths the run needs are resolved against it.
type Checkout string

// FindCheckout locates the enclosing Chromium checkout. $CHROMIUM_SRC wins
// when set; otherwise the ancestors of the executable and then of the
// working directory are searched for a directory containing
// third_party/blink, since the tool normally runs out of a build directory
// inside the checkout.
func FindCheckout() (Checkout, error) {
	if src := os.Getenv("CHROMIUM_SRC"); src != "" {
		return Checkout(src), nil
	}
	if exe, err := os.Executable(); err == nil {
		if c, ok := findCheckoutAbove(filepath.Dir(exe)); ok {
			return c, nil
		}
	}
	if wd, err := os.Getwd(); err == nil {
		if c, ok := findCheckoutAbove(wd); ok {
			return c, nil
		}
	}
	return "", errors.New("not inside a Chromium checkout; set $CHROMIUM_SRC")
}

func findCheckoutAbove(dir string) (Checkout, bool) {
	for {
		if fi, err := os.Stat(filepath.Join(dir, "third_party", "blink")); err == nil && fi.IsDir() {
			return Checkout(dir), true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func (c Checkout) path(elem ...string) string {
	return filepath.Join(append([]string{string(c)}, elem...)...)
}

// TestsRoot returns the directory holding the imported test suite.
func (c Checkout) TestsRoot() string {
	return c.path("third_party", "blink", "web_tests", "external", "wpt")
}

// DefaultWPT returns the runner entry point rolled into the checkout.
func (c Checkout) DefaultWPT() string {
	return c.path("third_party", "wpt_tools", "wpt", "wpt")
}

// MetadataBuilder returns the expectations-metadata builder script.
func (c Checkout) MetadataBuilder() string {
	return c.path("third_party", "blink", "tools", "build_wpt_metadata.py")
}

// DisabledTests returns the expectations file listing tests disabled on
// all Android products.
func (c Checkout) DisabledTests() string {
	return c.path("third_party", "blink", "web_tests", "android", "AndroidDisabledTests")
}

// ExpectationsPath returns the browser-specific expectations file for p.
func (c Checkout) ExpectationsPath(p Product) string {
	var name string
	switch p {
	case AndroidWebLayer:
		name = "WeblayerWPTOverrideExpectations"
	case AndroidWebView:
		name = "WebviewWPTOverrideExpectations"
	default:
		name = "ChromeWPTOverrideExpectations"
	}
	return c.path("third_party", "blink", "web_tests", "android", name)
}

// OutDir returns the build output directory for target.
func (c Checkout) OutDir(target string) string {
	return c.path("out", target)
}

// MojoJSDir returns the generated mojo JS bindings directory for target.
func (c Checkout) MojoJSDir(target string) string {
	return filepath.Join(c.OutDir(target), "gen")
}

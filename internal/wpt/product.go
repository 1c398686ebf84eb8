// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package wpt

import (
	"strings"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/errors"
)

// Product identifies the Android browser configuration under test. Its
// value is the tag understood by the external runner and the metadata
// builder.
type Product string

const (
	// AndroidWebLayer tests WebLayer through its shell.
	AndroidWebLayer Product = "android_weblayer"
	// AndroidWebView tests WebView through the system WebView shell.
	AndroidWebView Product = "android_webview"
	// ChromeAndroid tests the full Chrome browser.
	ChromeAndroid Product = "chrome_android"
)

// Products lists the supported products.
var Products = []Product{AndroidWebLayer, AndroidWebView, ChromeAndroid}

// ParseProduct maps a --product tag to a Product.
func ParseProduct(s string) (Product, error) {
	for _, p := range Products {
		if string(p) == s {
			return p, nil
		}
	}
	var tags []string
	for _, p := range Products {
		tags = append(tags, string(p))
	}
	return "", errors.Errorf("unknown product %q; must be one of %s", s, strings.Join(tags, ", "))
}

// productEnumValues returns the identity value map used to register the
// -product flag as an enum.
func productEnumValues() map[string]string {
	m := make(map[string]string)
	for _, p := range Products {
		m[string(p)] = string(p)
	}
	return m
}

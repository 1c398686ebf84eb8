// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package wpt

import (
	"context"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/timing"
)

// buildMetadata invokes the expectations-metadata builder and returns its
// exit code. The builder turns the expectations files into the per-test
// metadata directory the runner consumes; a non-zero exit means the
// expectations could not be translated and the run must not proceed.
func (a *Adapter) buildMetadata(ctx context.Context) (int, error) {
	ctx, stg := timing.Start(ctx, "build_metadata")
	defer stg.End()

	args := []string{
		a.checkout.MetadataBuilder(),
		"--android-product", string(a.product),
		"--metadata-output-dir", a.metadataDir,
		"--additional-expectations", a.checkout.DisabledTests(),
		"--use-subtest-results",
	}
	if a.opts.IgnoreDefaultExpectations {
		args = append(args, "--ignore-default-expectations")
	}
	for _, p := range a.opts.AdditionalExpectations {
		args = append(args, "--additional-expectations="+p)
	}
	if !a.opts.IgnoreBrowserSpecificExpectations {
		args = append(args, "--additional-expectations", a.variant.expectationsPath())
	}
	return a.runCmd(ctx, vpython, args...)
}

// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scoped tracks resources that must be released in the reverse order
// of their acquisition, e.g. packages installed on a device for the duration
// of a run.
package scoped

import (
	"context"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/logging"
)

// ReleaseFunc releases a previously acquired resource.
type ReleaseFunc func(ctx context.Context) error

// Stack collects release functions for acquired resources.
//
// A caller acquires resources one by one, pushing a release function for each
// right after the acquisition succeeds, and arranges for Release to run on
// every exit path (typically with defer). The zero value is an empty stack
// ready for use. Stack is not safe for concurrent use.
type Stack struct {
	funcs    []ReleaseFunc
	released bool
}

// Push schedules f to run on Release. Push order is acquisition order;
// Release runs functions in the opposite order.
func (s *Stack) Push(f ReleaseFunc) {
	s.funcs = append(s.funcs, f)
}

// Release runs all scheduled functions in reverse push order. Every function
// runs even if earlier ones fail; the first error is returned and subsequent
// ones are logged to ctx. Calling Release again is a no-op, so a deferred
// Release can follow an explicit one.
func (s *Stack) Release(ctx context.Context) error {
	if s.released {
		return nil
	}
	s.released = true

	var firstErr error
	for i := len(s.funcs) - 1; i >= 0; i-- {
		if err := s.funcs[i](ctx); err != nil {
			if firstErr == nil {
				firstErr = err
			} else {
				logging.Infof(ctx, "Failed to release resource: %v", err)
			}
		}
	}
	s.funcs = nil
	return firstErr
}

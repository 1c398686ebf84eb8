// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package timing

import (
	"context"
)

// logKey is the type of the key used for attaching a Log to a context.Context.
type logKey struct{}

// stageKey is the type of the key used for attaching the current Stage to a
// context.Context.
type stageKey struct{}

// NewContext returns a new context that carries log. The log's root stage
// becomes the current stage.
func NewContext(ctx context.Context, log *Log) context.Context {
	ctx = context.WithValue(ctx, logKey{}, log)
	ctx = context.WithValue(ctx, stageKey{}, log.Root)
	return ctx
}

// FromContext returns the Log and the current Stage attached to ctx, if any.
func FromContext(ctx context.Context) (*Log, *Stage, bool) {
	l, ok := ctx.Value(logKey{}).(*Log)
	if !ok {
		return nil, nil, false
	}
	s, ok := ctx.Value(stageKey{}).(*Stage)
	if !ok {
		return nil, nil, false
	}
	return l, s, true
}

// Start starts a new Stage named name as a child of the current stage in ctx
// and returns a context with the new stage as the current stage. Call End on
// the returned stage when the stage is completed.
//
// If no Log is attached to ctx, a nil Stage is returned; it is safe to call
// End on it.
func Start(ctx context.Context, name string) (context.Context, *Stage) {
	_, cs, ok := FromContext(ctx)
	if !ok {
		return ctx, nil
	}
	st := cs.StartChild(name)
	if st == nil {
		return ctx, nil
	}
	return context.WithValue(ctx, stageKey{}, st), st
}

// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package wpt

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/command"
)

// ArgSet accumulates formatted command-line tokens for forwarding to
// another process. Insertion order is preserved and exact duplicates are
// dropped, so registering the same token repeatedly is idempotent and the
// first occurrence keeps its position.
type ArgSet struct {
	args []string
	seen map[string]bool
}

// NewArgSet returns an empty ArgSet.
func NewArgSet() *ArgSet {
	return &ArgSet{seen: make(map[string]bool)}
}

// Add appends token unless an identical token was added before.
func (s *ArgSet) Add(token string) {
	if s.seen[token] {
		return
	}
	s.seen[token] = true
	s.args = append(s.args, token)
}

// Args returns the accumulated tokens in first-seen order.
func (s *ArgSet) Args() []string {
	return append([]string(nil), s.args...)
}

// registerPassThrough adds a valued flag named name to fs whose value is
// not interpreted locally: each occurrence is formatted as --name=value
// and recorded in set.
func registerPassThrough(fs *flag.FlagSet, set *ArgSet, name, usage string) {
	f := command.RepeatedFlag(func(v string) error {
		set.Add(fmt.Sprintf("--%s=%s", name, v))
		return nil
	})
	fs.Var(&f, name, usage)
}

// registerPassThroughBare adds a value-less flag named name to fs that is
// forwarded as a bare --name token when supplied.
func registerPassThroughBare(fs *flag.FlagSet, set *ArgSet, name, usage string) {
	f := command.BoolFuncFlag(func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		if b {
			set.Add("--" + name)
		}
		return nil
	})
	fs.Var(&f, name, usage)
}

// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package command

import (
	"fmt"
	"sort"
	"strings"
)

// EnumFlag implements flag.Value to restrict a string-valued command-line
// flag to a fixed set of values.
type EnumFlag struct {
	valid  map[string]string  // map from user-supplied value to assigned value
	assign EnumFlagAssignFunc // used to assign the value to dest
	def    string             // default value
}

// EnumFlagAssignFunc is used by EnumFlag to assign an enum value to a target variable.
type EnumFlagAssignFunc func(val string)

// NewEnumFlag returns an EnumFlag using the supplied map of valid values and assignment function.
// def contains a default value to assign when the flag is unspecified.
func NewEnumFlag(valid map[string]string, assign EnumFlagAssignFunc, def string) *EnumFlag {
	f := EnumFlag{valid, assign, def}
	if err := f.Set(def); err != nil {
		panic(err)
	}
	return &f
}

// Default returns the default value used if the flag is unset.
func (f *EnumFlag) Default() string { return f.def }

// QuotedValues returns a comma-separated list of quoted values the user can supply.
func (f *EnumFlag) QuotedValues() string {
	var qn []string
	for n := range f.valid {
		qn = append(qn, fmt.Sprintf("%q", n))
	}
	sort.Strings(qn)
	return strings.Join(qn, ", ")
}

func (f *EnumFlag) String() string { return "" }

func (f *EnumFlag) Set(v string) error {
	ev, ok := f.valid[v]
	if !ok {
		return fmt.Errorf("must be in %s", f.QuotedValues())
	}
	f.assign(ev)
	return nil
}

// RepeatedFlag implements flag.Value around an underlying function that is
// executed each time the flag is supplied. It can be used to permit a flag
// being supplied repeatedly.
type RepeatedFlag func(v string) error

func (f *RepeatedFlag) String() string { return "" }

func (f *RepeatedFlag) Set(v string) error { return (*f)(v) }

// BoolFuncFlag is the boolean counterpart of RepeatedFlag: the underlying
// function is executed each time the flag is supplied, and the flag consumes
// no argument. The function receives the flag's boolean value ("true" when
// the flag is given bare).
type BoolFuncFlag func(v string) error

func (f *BoolFuncFlag) String() string { return "" }

func (f *BoolFuncFlag) Set(v string) error { return (*f)(v) }

// IsBoolFlag marks the flag as boolean for the flag package.
func (f *BoolFuncFlag) IsBoolFlag() bool { return true }

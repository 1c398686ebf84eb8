// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package command_test

import (
	"flag"
	"fmt"
	"io/ioutil"
	"strconv"
	"testing"

	"github.com/TrellixVulnTeam/chromium91-X6SG/internal/command"
)

func TestEnumFlag(t *testing.T) {
	for _, tc := range []struct {
		args   []string // args to parse
		def    string   // default value for flag
		exp    string   // expected value
		expErr bool     // if true, error is expected
	}{
		{[]string{}, "val0", "zero", false},
		{[]string{"-flag=val0"}, "val0", "zero", false},
		{[]string{"-flag=val1"}, "val0", "one", false},
		{[]string{"-flag=val2"}, "val0", "two", false},
		{[]string{"-flag=bogus"}, "val0", "zero", true},
		{[]string{"-flag"}, "val0", "zero", true},
	} {
		valid := map[string]string{"val0": "zero", "val1": "one", "val2": "two"}
		val := ""
		f := func(v string) { val = v }
		fs := flag.NewFlagSet("", flag.ContinueOnError)
		fs.SetOutput(ioutil.Discard)
		fs.Var(command.NewEnumFlag(valid, f, tc.def), "flag", "usage")

		if err := fs.Parse(tc.args); err != nil && !tc.expErr {
			t.Errorf("%v produced error: %v", tc.args, err)
		} else if err == nil && tc.expErr {
			t.Errorf("%v didn't produce expected error", tc.args)
		} else if val != tc.exp {
			t.Errorf("%v resulted in %v; want %v", tc.args, val, tc.exp)
		}
	}
}

func ExampleRepeatedFlag() {
	var dest []int
	rf := command.RepeatedFlag(func(v string) error {
		i, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		dest = append(dest, i)
		return nil
	})
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.Var(&rf, "flag", "usage")

	// When the flag isn't supplied, the slice is unchanged.
	flags.Parse([]string{})
	fmt.Println("no flag:", dest)

	// The function is called each time the flag is provided.
	flags.Parse([]string{"-flag=1", "-flag=2"})
	fmt.Println("flag:", dest)

	// Output:
	// no flag: []
	// flag: [1 2]
}

func TestBoolFuncFlag(t *testing.T) {
	for _, tc := range []struct {
		args []string // args to parse
		exp  int      // expected count
	}{
		{[]string{}, 0},
		{[]string{"-flag"}, 1},
		{[]string{"-flag", "-flag", "-flag"}, 3},
		{[]string{"-flag=true", "-flag"}, 2},
		{[]string{"-flag=false"}, 0},
	} {
		count := 0
		bf := command.BoolFuncFlag(func(v string) error {
			if b, err := strconv.ParseBool(v); err != nil {
				return err
			} else if b {
				count++
			}
			return nil
		})
		fs := flag.NewFlagSet("", flag.ContinueOnError)
		fs.SetOutput(ioutil.Discard)
		fs.Var(&bf, "flag", "usage")

		if err := fs.Parse(tc.args); err != nil {
			t.Errorf("%v produced error: %v", tc.args, err)
		} else if count != tc.exp {
			t.Errorf("%v resulted in count %d; want %d", tc.args, count, tc.exp)
		}
	}
}

// Copyright 2021 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package avd

import (
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// killSession makes a best-effort attempt to kill every process in session
// sid. The emulator forks qemu and crash-handler helpers into its session,
// so signaling the leader alone can leave them running. It makes several
// passes over the process list, sending sig to members of the session, and
// returns once a pass finds none. This is racy: a continually-forking
// process could in principle spawn children that escape.
func killSession(sid int, sig unix.Signal) {
	const maxPasses = 3
	for i := 0; i < maxPasses; i++ {
		pids, err := process.Pids()
		if err != nil {
			return
		}
		n := 0
		for _, pid := range pids {
			pid := int(pid)
			if s, err := unix.Getsid(pid); err == nil && s == sid {
				unix.Kill(pid, sig)
				n++
			}
		}
		if n == 0 {
			return
		}
	}
}

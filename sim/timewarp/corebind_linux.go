//go:build linux

package timewarp

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// bindWorkerToCore pins the calling goroutine's OS thread to one CPU core,
// per SPEC_FULL.md's domain-stack requirement to exercise
// golang.org/x/sys/unix for affinity control. Go's scheduler can still
// migrate the goroutine across threads unless it is locked to its OS
// thread first, so this always calls runtime.LockOSThread via
// lockAndBind before setting affinity.
func bindWorkerToCore(workerID int) {
	lockAndBind(func() {
		ncpu := unix.CPU_SETSIZE
		core := workerID % ncpu
		var set unix.CPUSet
		set.Zero()
		set.Set(core)
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			logrus.Warnf("timewarp: core binding failed for worker %d: %v", workerID, err)
		}
	})
}

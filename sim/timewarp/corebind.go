package timewarp

import "runtime"

// lockAndBind locks the calling goroutine to its current OS thread (so
// a subsequent affinity syscall actually sticks) and then runs fn.
// Locking is permanent for the life of the worker goroutine, which is
// correct here: worker goroutines never return to a shared pool, they
// run until the engine stops.
func lockAndBind(fn func()) {
	runtime.LockOSThread()
	fn()
}

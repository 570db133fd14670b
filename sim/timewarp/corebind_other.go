//go:build !linux

package timewarp

// bindWorkerToCore is a no-op outside Linux: unix.SchedSetaffinity has no
// portable equivalent, and CoreBinding is documented as best-effort.
func bindWorkerToCore(workerID int) {}

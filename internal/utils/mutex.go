package utils

import "sync"

var gdalMu sync.Mutex

// ExecuteWithMutex runs fn while holding the process wide GDAL lock.
// Dataset handles must not be used from two goroutines at once.
func ExecuteWithMutex(fn func()) {
	gdalMu.Lock()
	defer gdalMu.Unlock()
	fn()
}

var progressMu sync.Mutex

// ExecuteWithProgressMutex serializes terminal progress updates.
func ExecuteWithProgressMutex(fn func()) {
	progressMu.Lock()
	defer progressMu.Unlock()
	fn()
}

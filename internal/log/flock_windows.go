//go:build windows

package log

import (
	"os"

	"golang.org/x/sys/windows"
)

const allBytes = ^uint32(0)

// Flock sets an advisory lock for writing on the provided file.
func Flock(file *os.File) error {
	return windows.LockFileEx(windows.Handle(file.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, allBytes, allBytes, &windows.Overlapped{})
}

// FUnlock removes the advisory lock set by Flock.
func FUnlock(file *os.File) error {
	return windows.UnlockFileEx(windows.Handle(file.Fd()), 0, allBytes, allBytes, &windows.Overlapped{})
}

//go:build unix

package log

import (
	"os"
	"syscall"
)

// Flock sets an advisory lock for writing on the provided file.
func Flock(file *os.File) error {
	return syscall.Flock(int(file.Fd()), syscall.LOCK_EX)
}

// FUnlock removes the advisory lock set by Flock.
func FUnlock(file *os.File) error {
	return syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
}

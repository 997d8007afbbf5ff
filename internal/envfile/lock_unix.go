// Advisory directory lock for Unix-like systems.

//go:build unix

package envfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockDir takes an exclusive flock on dir so two writers never interleave
// their temp-file + rename sequences. The returned func releases it.
func lockDir(dir string) (func(), error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}

package envfile

import (
	"bytes"
	"os"

	"github.com/natefinch/atomic"
)

// renameio has no Windows support; natefinch/atomic uses MoveFileEx there.
func replaceFile(dir, path string, data []byte) error {
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	return os.Chmod(path, FileMode)
}

//go:build !windows

package envfile

import (
	"github.com/google/renameio/v2"
)

func replaceFile(dir, path string, data []byte) error {
	f, err := renameio.NewPendingFile(path,
		renameio.WithTempDir(dir),
		renameio.WithStaticPermissions(FileMode))
	if err != nil {
		return err
	}
	defer f.Cleanup()

	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.CloseAtomicallyReplace()
}

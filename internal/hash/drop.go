package hash

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/tuannm99/novasql/internal/storage"
)

// DropIndex removes all page segments and the sidecar meta file for a
// hash index. Works for LocalFileSet only.
func DropIndex(lfs storage.LocalFileSet) error {
	if err := os.MkdirAll(lfs.Dir, storage.FileMode0755); err != nil {
		return err
	}
	if err := storage.RemoveAllSegments(lfs); err != nil {
		return err
	}
	metaPath := filepath.Join(lfs.Dir, lfs.Base+metaFileSuffix)
	if err := os.Remove(metaPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

package remote

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillchef/pkg/store"
)

func fetchLocal(source, dest string) error {
	src, err := filepath.Abs(source)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve %s", source)
	}
	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", src)
	}

	if info.IsDir() {
		return store.CopyDir(src, dest)
	}
	return store.CopyFile(src, filepath.Join(dest, filepath.Base(src)), info.Mode().Perm())
}

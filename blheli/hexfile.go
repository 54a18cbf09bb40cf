package blheli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// SplitLines splits file contents on "\n". A trailing newline yields a final
// empty element, so JoinLines(SplitLines(b)) == b.
func SplitLines(data []byte) []string {
	return strings.Split(string(data), "\n")
}

func JoinLines(lines []string) []byte {
	return []byte(strings.Join(lines, "\n"))
}

// atomicWriteFile replaces path with data by renaming a temp file written
// next to it, so readers never see a partial hex file.
func atomicWriteFile(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Wrapf(err, "writing %s", tmp.Name())
	}
	if err := tmp.Chmod(perm); err != nil {
		return errors.Wrapf(err, "setting mode of %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", tmp.Name())
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "renaming into %s", path)
}

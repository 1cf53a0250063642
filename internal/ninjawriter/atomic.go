package ninjawriter

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
)

// mkdirAllFor ensures path's parent directory exists.
func mkdirAllFor(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// atomicWrite runs write against a temp file in path's directory, then
// renames it into place, the same tempfile-then-rename durability
// pattern Writer.WriteFile and cmd/distri/ninja.go use for build.ninja
// itself — applied here to the side-channel data files so a crash while
// writing tests.dat/install.dat never leaves a truncated file behind.
func atomicWrite(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	f, err := ioutil.TempFile(dir, "."+filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	tmpName := f.Name()
	defer os.Remove(tmpName)

	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

package backup

import (
	"io"
	"os"
	"path/filepath"
)

// writeFileAtomically writes the output of fn to dstPath via a temporary
// file in the same directory that is renamed over dstPath only if fn,
// Sync and Close all succeed. On failure the temporary file is removed
// and dstPath is left untouched.
func writeFileAtomically(dstPath string, fn func(w io.Writer) error) error {
	dir, name := filepath.Split(dstPath)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, name+".tmp*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	didRename := false
	defer func() {
		if !didRename {
			_ = os.Remove(tmpPath)
		}
	}()

	err = fn(tmp)
	// https://www.joeshaw.org/dont-defer-close-on-writable-files/
	errSync := tmp.Sync()
	errClose := tmp.Close()
	if err == nil {
		err = errSync
	}
	if err == nil {
		err = errClose
	}
	if err != nil {
		return err
	}
	if err = os.Rename(tmpPath, dstPath); err != nil {
		return err
	}
	didRename = true

	// nice to have, not must have
	if fdir, _ := os.Open(dir); fdir != nil {
		_ = fdir.Sync()
		_ = fdir.Close()
	}
	return nil
}

// copyFileAtomically copies src to dst, optionally compressing
func copyFileAtomically(dst string, src string, c Compression) error {
	fin, err := os.Open(src)
	if err != nil {
		return err
	}
	defer fin.Close()
	return writeFileAtomically(dst, func(w io.Writer) error {
		cw, err := c.NewWriter(w)
		if err != nil {
			return err
		}
		_, err = io.Copy(cw, fin)
		err2 := cw.Close()
		if err != nil {
			return err
		}
		return err2
	})
}

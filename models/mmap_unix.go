//go:build unix

package models

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// mapFile maps path read-only into memory.
func mapFile(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to load model from file")
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, nil, errors.Wrap(err, "stat")
	}
	if st.Size() == 0 {
		return nil, func() error { return nil }, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mmap")
	}
	return data, func() error { return unix.Munmap(data) }, nil
}

//go:build unix

package processor

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapSupported reports whether large files are memory-mapped on this platform.
const mmapSupported = true

// mapFile maps f read-only. The returned release func must be called once
// the bytes are no longer referenced.
func mapFile(f *os.File, size int64) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, func() error { return nil }, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	return data, func() error { return unix.Munmap(data) }, nil
}

//go:build !unix

package processor

import (
	"io"
	"os"
)

// mmapSupported reports whether large files are memory-mapped on this platform.
const mmapSupported = false

// mapFile reads f fully into memory on platforms without unix mmap.
func mapFile(f *os.File, _ int64) ([]byte, func() error, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}

package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/jconvert/internal/config"
)

func writeLines(t *testing.T, s *Sink, lines ...string) {
	t.Helper()
	for _, l := range lines {
		_, err := s.WriteLine(l)
		require.NoError(t, err)
	}
}

func TestOpen_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"old\":1}\n{\"old\":2}\n"), 0o644))

	s, err := Open(path, config.WriteOverwrite, config.CompressAuto)
	require.NoError(t, err)
	writeLines(t, s, `{"new":1}`)
	require.NoError(t, s.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"new\":1}\n", string(got))
}

func TestOpen_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"old\":1}\n"), 0o644))

	s, err := Open(path, config.WriteAppend, config.CompressNone)
	require.NoError(t, err)
	writeLines(t, s, `{"new":1}`, `{"new":2}`)
	require.NoError(t, s.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"old\":1}\n{\"new\":1}\n{\"new\":2}\n", string(got))
	assert.Equal(t, int64(2), s.Lines())
}

func TestOpen_AppendCreatesMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.jsonl")
	s, err := Open(path, config.WriteAppend, config.CompressNone)
	require.NoError(t, err)
	writeLines(t, s, `1`)
	require.NoError(t, s.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n", string(got))
}

func TestErrorMode(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "exists.jsonl")
	require.NoError(t, os.WriteFile(existing, []byte("keep\n"), 0o644))

	err := CheckDestination(existing, config.WriteError)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutputExists))

	_, err = Open(existing, config.WriteError, config.CompressNone)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutputExists))

	got, _ := os.ReadFile(existing)
	assert.Equal(t, "keep\n", string(got), "existing file must be untouched")

	fresh := filepath.Join(dir, "fresh.jsonl")
	require.NoError(t, CheckDestination(fresh, config.WriteError))
	s, err := Open(fresh, config.WriteError, config.CompressNone)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	for _, mode := range []config.WriteMode{config.WriteOverwrite, config.WriteAppend} {
		assert.NoError(t, CheckDestination(existing, mode))
	}
}

func TestOpen_MissingParent(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no", "such", "out.jsonl"), config.WriteOverwrite, config.CompressNone)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrOutputExists))
}

func TestResolveCompression(t *testing.T) {
	tests := []struct {
		path string
		in   config.Compression
		want config.Compression
	}{
		{"out.jsonl", config.CompressAuto, config.CompressNone},
		{"out.jsonl.gz", config.CompressAuto, config.CompressGzip},
		{"OUT.JSONL.GZ", config.CompressAuto, config.CompressGzip},
		{"out.jsonl.zst", config.CompressAuto, config.CompressZstd},
		{"out.jsonl.lz4", config.CompressAuto, config.CompressLZ4},
		{"out.jsonl.s2", config.CompressAuto, config.CompressS2},
		{"out.jsonl", "", config.CompressNone},
		{"out.jsonl", config.CompressZstd, config.CompressZstd},
		{"out.jsonl.gz", config.CompressNone, config.CompressNone},
	}
	for _, tt := range tests {
		t.Run(tt.path+"/"+string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveCompression(tt.path, tt.in))
		})
	}
}

func decompress(t *testing.T, c config.Compression, raw []byte) string {
	t.Helper()
	var r io.Reader
	switch c {
	case config.CompressGzip:
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		require.NoError(t, err)
		defer zr.Close()
		r = zr
	case config.CompressZstd:
		zr, err := zstd.NewReader(bytes.NewReader(raw))
		require.NoError(t, err)
		defer zr.Close()
		r = zr
	case config.CompressLZ4:
		r = lz4.NewReader(bytes.NewReader(raw))
	case config.CompressS2:
		r = s2.NewReader(bytes.NewReader(raw))
	default:
		r = bytes.NewReader(raw)
	}
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestCompressionRoundTrip(t *testing.T) {
	lines := []string{`{"a":1}`, `{"b":"two"}`, `[1,2,3]`}
	want := strings.Join(lines, "\n") + "\n"

	for _, name := range []string{"out.jsonl", "out.jsonl.gz", "out.jsonl.zst", "out.jsonl.lz4", "out.jsonl.s2"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			s, err := Open(path, config.WriteOverwrite, config.CompressAuto)
			require.NoError(t, err)
			writeLines(t, s, lines...)
			require.NoError(t, s.Close())

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, want, decompress(t, s.Compression(), raw))
			assert.Equal(t, int64(len(want)), s.Written(), "written counts uncompressed bytes")
		})
	}
}

func TestCompressedAppendReadsAsOneStream(t *testing.T) {
	for _, name := range []string{"out.jsonl.gz", "out.jsonl.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			first, err := Open(path, config.WriteOverwrite, config.CompressAuto)
			require.NoError(t, err)
			writeLines(t, first, `{"run":1}`)
			require.NoError(t, first.Close())

			second, err := Open(path, config.WriteAppend, config.CompressAuto)
			require.NoError(t, err)
			writeLines(t, second, `{"run":2}`)
			require.NoError(t, second.Close())

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "{\"run\":1}\n{\"run\":2}\n", decompress(t, second.Compression(), raw))
		})
	}
}

func TestWriteLine_ByteAccountingAndChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	s, err := Open(path, config.WriteOverwrite, config.CompressNone)
	require.NoError(t, err)

	var total int64
	for _, l := range []string{`{}`, `{"k":"ünïcödé"}`, `"x"`} {
		n, err := s.WriteLine(l)
		require.NoError(t, err)
		assert.Equal(t, int64(len(l)+1), n)
		total += n
	}
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, total, s.Written())
	assert.Equal(t, int64(len(raw)), total)
	assert.Equal(t, xxhash.Sum64(raw), s.Checksum())
	assert.Equal(t, int64(3), s.Lines())
}

func TestWriteLine_ConcurrentLinesStayWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	s, err := Open(path, config.WriteOverwrite, config.CompressNone)
	require.NoError(t, err)

	const writers, perWriter = 8, 500
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				line := fmt.Sprintf(`{"writer":%d,"seq":%d,"pad":"%s"}`, w, i, strings.Repeat("x", 100))
				if _, err := s.WriteLine(line); err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	got := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
	require.Len(t, got, writers*perWriter)
	for _, l := range got {
		assert.True(t, strings.HasPrefix(l, `{"writer":`) && strings.HasSuffix(l, `"}`), "torn line %q", l)
	}
}

func TestClose_Idempotent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "out.jsonl"), config.WriteOverwrite, config.CompressGzip)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	_, err = s.WriteLine("late")
	assert.Error(t, err)
}

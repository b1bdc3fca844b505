package processor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
	"unsafe"

	"github.com/bytedance/sonic"
	sonicutf8 "github.com/bytedance/sonic/utf8"
)

// codec is shared by both read paths so that mapped and streamed input
// decode to identical values. Keys are sorted on output, numbers stay
// json.Number, and decoded strings are copied out of the source buffer.
var codec = sonic.Config{
	EscapeHTML:     false,
	SortMapKeys:    true,
	UseNumber:      true,
	CopyString:     true,
	ValidateString: true,
}.Froze()

const prettyIndent = "  "

var (
	errInvalidUTF8 = errors.New("invalid UTF-8")
	errEndOfInput  = errors.New("unexpected end of input")
)

// decodeBytes parses a complete in-memory document. data is read in place
// and must stay valid until the returned value is no longer used.
func decodeBytes(data []byte) (any, error) {
	if isBlank(data) {
		return nil, errEndOfInput
	}
	if !sonicutf8.Validate(data) {
		return nil, errInvalidUTF8
	}
	var v any
	if err := codec.UnmarshalFromString(unsafe.String(unsafe.SliceData(data), len(data)), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeStream parses one document from r and requires that nothing but
// whitespace follows it.
func decodeStream(r io.ReadSeeker) (any, error) {
	br := bufio.NewReaderSize(&utf8Reader{r: r}, 64*1024)
	dec := codec.NewDecoder(br)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, reparse(r)
		}
		return nil, err
	}
	if err := expectEOF(io.MultiReader(dec.Buffered(), br)); err != nil {
		return nil, err
	}
	return v, nil
}

// reparse recovers a positioned syntax error after the stream decoder hit
// end of input. Only inputs below the mapping threshold are streamed, so
// reading one whole is bounded.
func reparse(r io.ReadSeeker) error {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return errEndOfInput
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if _, err := decodeBytes(data); err != nil {
		return err
	}
	return errEndOfInput
}

// expectEOF consumes r and fails on the first non-whitespace byte.
func expectEOF(r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		for _, c := range buf[:n] {
			switch c {
			case ' ', '\t', '\r', '\n':
			default:
				return fmt.Errorf("trailing characters after JSON value (found %q)", c)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func isBlank(data []byte) bool {
	for _, c := range data {
		switch c {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}

// utf8Reader passes bytes through from r and fails with errInvalidUTF8 once
// the stream stops being well-formed UTF-8. A rune split across reads is
// held in tail until its remaining bytes arrive.
type utf8Reader struct {
	r       io.Reader
	tail    [utf8.UTFMax]byte
	pending int
	err     error
}

func (u *utf8Reader) Read(p []byte) (int, error) {
	if u.err != nil {
		return 0, u.err
	}
	n, err := u.r.Read(p)
	if n > 0 && !u.check(p[:n]) {
		u.err = errInvalidUTF8
		return 0, u.err
	}
	if errors.Is(err, io.EOF) && u.pending > 0 {
		u.err = errInvalidUTF8
		if n > 0 {
			return n, nil
		}
		return 0, u.err
	}
	return n, err
}

// check validates b as the continuation of everything read so far.
func (u *utf8Reader) check(b []byte) bool {
	if u.pending > 0 {
		var buf [2 * utf8.UTFMax]byte
		k := copy(buf[:], u.tail[:u.pending])
		for len(b) > 0 {
			buf[k] = b[0]
			k++
			b = b[1:]
			if utf8.FullRune(buf[:k]) {
				if !sonicutf8.Validate(buf[:k]) {
					return false
				}
				u.pending = 0
				break
			}
		}
		if u.pending > 0 {
			u.pending = copy(u.tail[:], buf[:k])
			return true
		}
	}

	cut := len(b)
	for i := len(b) - 1; i >= 0 && i > len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				cut = i
			}
			break
		}
	}
	if !sonicutf8.Validate(b[:cut]) {
		return false
	}
	u.pending = copy(u.tail[:], b[cut:])
	return true
}

// encode serializes v compactly or with two-space indentation.
func encode(v any, pretty bool) (string, error) {
	if pretty {
		b, err := codec.MarshalIndent(v, "", prettyIndent)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return codec.MarshalToString(v)
}

// Package manifest implements the binary manifest format: decoding, encoding
// and the file-backed ports.ManifestStore.
package manifest

import (
	"encoding/binary"
	"unicode/utf8"

	"go.trai.ch/remake/internal/core/domain"
)

const (
	u64Size = 8
	// minStringSize is the encoded size of an empty string (its length prefix).
	minStringSize = u64Size
)

// Reader is a forward-only cursor over an in-memory manifest.
// Every failed read returns a *domain.ParseError locating the offending bytes.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() uint64 {
	return uint64(r.off)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// AtEnd reports whether the cursor sits exactly at the end of the buffer.
func (r *Reader) AtEnd() bool {
	return r.off == len(r.buf)
}

// Read consumes the next n bytes.
func (r *Reader) Read(n uint64) ([]byte, error) {
	if n > uint64(r.Remaining()) {
		return nil, domain.UnexpectedEOF(domain.NewSpan(r.Offset(), uint64(len(r.buf))))
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}

// ReadU64 consumes a little-endian unsigned 64-bit integer.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.Read(u64Size)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadBool consumes one byte; any non-zero value is true.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.Read(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadString consumes a length-prefixed UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	s, _, err := r.readString()
	return s, err
}

func (r *Reader) readString() (string, *domain.Span, error) {
	n, err := r.ReadU64()
	if err != nil {
		return "", nil, err
	}
	start := r.Offset()
	b, err := r.Read(n)
	if err != nil {
		return "", nil, err
	}
	span := domain.NewSpan(start, r.Offset())
	if !utf8.Valid(b) {
		return "", nil, domain.NewParseError(domain.ErrInvalidUTF8, span, "string field is not valid utf-8")
	}
	return string(b), span, nil
}

// ReadStringArray consumes a count-prefixed sequence of strings.
func (r *Reader) ReadStringArray() ([]string, error) {
	count, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, r.capacity(count, minStringSize))
	for range count {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ReadStringMap consumes a count-prefixed sequence of key/value string pairs.
// A repeated key keeps the last value.
func (r *Reader) ReadStringMap() (map[string]string, error) {
	count, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, r.capacity(count, 2*minStringSize))
	for range count {
		k, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// capacity bounds a count prefix by what the remaining input could hold, so a
// corrupt prefix never triggers a huge allocation.
func (r *Reader) capacity(count uint64, elemSize int) int {
	limit := uint64(r.Remaining() / elemSize)
	return int(min(count, limit))
}

package core

// streaming.go provides readers that clean CSV input on the fly:
//
//   - BOMSkippingReader: drops a leading UTF-8 BOM written by Excel on Windows
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?'
//   - SizeLimitReader: fails with ErrFileTooLarge past a byte budget
//
// Use WrapForStreaming to apply the cleaning transforms in the correct order.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrFileTooLarge is returned once a SizeLimitReader exceeds its budget.
var ErrFileTooLarge = errors.New("file too large")

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader. The BOM check happens on the first call.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		if head, err := r.br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = r.br.Discard(len(utf8BOM))
		}
	}
	return r.br.Read(p)
}

// UTF8Sanitizer replaces every byte that is not part of a valid UTF-8
// sequence with '?'. Replacing with a single byte keeps the output no longer
// than the input.
type UTF8Sanitizer struct {
	br *bufio.Reader
}

// NewUTF8Sanitizer creates a sanitizing reader.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		r, size, err := s.br.ReadRune()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}

		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}
		if n+size > len(p) {
			// no room for the whole rune; leave it for the next call
			_ = s.br.UnreadRune()
			break
		}
		n += utf8.EncodeRune(p[n:], r)
	}
	return n, nil
}

// SizeLimitReader reads at most Limit bytes and then fails with ErrFileTooLarge.
type SizeLimitReader struct {
	r         io.Reader
	Limit     int64
	BytesRead int64
}

// NewSizeLimitReader wraps r with a byte budget. limit <= 0 disables the check.
func NewSizeLimitReader(r io.Reader, limit int64) *SizeLimitReader {
	return &SizeLimitReader{r: r, Limit: limit}
}

// Read implements io.Reader.
func (l *SizeLimitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.BytesRead += int64(n)
	if l.Limit > 0 && l.BytesRead > l.Limit {
		return n, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, l.Limit)
	}
	return n, err
}

// WrapForStreaming strips the BOM and then sanitizes UTF-8. The BOM must go
// first, before any other processing sees the bytes.
func WrapForStreaming(r io.Reader) io.Reader {
	return NewUTF8Sanitizer(NewBOMSkippingReader(r))
}

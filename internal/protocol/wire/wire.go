// Package wire decodes the scalar encodings used inside attribute raw data:
// protobuf base-128 varints and varint length-prefixed UTF-8 strings.
package wire

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrTruncated   = errors.New("wire: truncated varint")
	ErrOverflow    = errors.New("wire: varint overflows target width")
	ErrShortString = errors.New("wire: string shorter than its length prefix")
	ErrInvalidUTF8 = errors.New("wire: string is not valid utf-8")
)

// maxLen32 is the longest varint accepted for a 32-bit quantity.
const maxLen32 = 5

// Varint decodes one varint from the front of b and returns it with the
// number of bytes consumed.
func Varint(b []byte) (uint64, int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, parseError(n)
	}
	return v, n, nil
}

func parseError(n int) error {
	err := protowire.ParseError(n)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return fmt.Errorf("%w: %v", ErrOverflow, err)
}

// Int64 decodes a varint-encoded int64.
func Int64(b []byte) (int64, error) {
	v, _, err := Varint(b)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// Int32 decodes a varint-encoded int32. Negative values arrive sign-extended
// to ten bytes, so the full 64-bit varint is consumed and truncated.
func Int32(b []byte) (int32, error) {
	v, _, err := Varint(b)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// Uint32 decodes a varint and keeps its low 32 bits.
func Uint32(b []byte) (uint32, error) {
	v, _, err := Varint(b)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// String decodes a varint length followed by that many UTF-8 bytes.
func String(b []byte) (string, error) {
	size, n, err := Varint(b)
	if err != nil {
		return "", err
	}
	if n > maxLen32 {
		return "", ErrOverflow
	}
	rest := b[n:]
	if uint64(len(rest)) < size {
		return "", ErrShortString
	}
	s := rest[:size]
	if !utf8.Valid(s) {
		return "", ErrInvalidUTF8
	}
	return string(s), nil
}

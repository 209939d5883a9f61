package rlp

import "errors"

var (
	// ErrExpectedString is returned when a list is found where a string was expected.
	ErrExpectedString = errors.New("rlp: expected string")

	// ErrExpectedList is returned when a string is found where a list was expected.
	ErrExpectedList = errors.New("rlp: expected list")

	// ErrCanonSize is returned for a single byte below 0x80 wrapped in a
	// string header, or a long header used for a short payload.
	ErrCanonSize = errors.New("rlp: non-canonical size information")

	// ErrCanonInt is returned for integers or size fields with leading zeros.
	ErrCanonInt = errors.New("rlp: non-canonical integer encoding")

	// ErrUint64Range is returned when a decoded integer exceeds uint64 range.
	ErrUint64Range = errors.New("rlp: uint64 overflow")

	// ErrValueTooLarge is returned when a declared size does not fit in memory.
	ErrValueTooLarge = errors.New("rlp: value size exceeds available input")

	// ErrIndexOutOfRange is returned by Item when the list is too short.
	ErrIndexOutOfRange = errors.New("rlp: list index out of range")

	// ErrTrailingBytes is returned when input continues after a complete item.
	ErrTrailingBytes = errors.New("rlp: trailing bytes after value")
)

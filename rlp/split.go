// Package rlp implements the Recursive Length Prefix encoding used by
// execution-layer tries, transactions and receipts. Decoding works directly
// on byte slices: Split peels one item off the front of its input, and the
// list helpers index into a list payload without allocating.
package rlp

import "io"

// Kind represents the type of an RLP value.
type Kind int

const (
	Byte   Kind = iota // Single byte in [0x00, 0x7f].
	String             // RLP string (including empty string).
	List               // RLP list.
)

func (k Kind) String() string {
	switch k {
	case Byte:
		return "Byte"
	case String:
		return "String"
	case List:
		return "List"
	default:
		return "Unknown"
	}
}

// Split returns the kind and payload of the first item in b together with
// the bytes following it. Non-canonical headers are rejected.
func Split(b []byte) (k Kind, content, rest []byte, err error) {
	k, ts, cs, err := readKind(b)
	if err != nil {
		return 0, nil, b, err
	}
	return k, b[ts : ts+cs], b[ts+cs:], nil
}

// SplitString splits b into the payload of a string item and the rest.
func SplitString(b []byte) (content, rest []byte, err error) {
	k, content, rest, err := Split(b)
	if err != nil {
		return nil, b, err
	}
	if k == List {
		return nil, b, ErrExpectedString
	}
	return content, rest, nil
}

// SplitList splits b into the payload of a list item and the rest.
func SplitList(b []byte) (content, rest []byte, err error) {
	k, content, rest, err := Split(b)
	if err != nil {
		return nil, b, err
	}
	if k != List {
		return nil, b, ErrExpectedList
	}
	return content, rest, nil
}

// SplitUint64 decodes an integer at the front of b.
func SplitUint64(b []byte) (x uint64, rest []byte, err error) {
	content, rest, err := SplitString(b)
	if err != nil {
		return 0, b, err
	}
	x, err = Uint64(content)
	return x, rest, err
}

// Uint64 decodes the payload of an integer string.
func Uint64(content []byte) (uint64, error) {
	switch {
	case len(content) == 0:
		return 0, nil
	case len(content) > 8:
		return 0, ErrUint64Range
	case content[0] == 0:
		return 0, ErrCanonInt
	}
	var val uint64
	for _, x := range content {
		val = val<<8 | uint64(x)
	}
	return val, nil
}

// CountValues counts the number of encoded items in a list payload.
func CountValues(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		_, ts, cs, err := readKind(b)
		if err != nil {
			return 0, err
		}
		b = b[ts+cs:]
		n++
	}
	return n, nil
}

// ListItems decodes the list item b and returns the raw encoding of each
// element (header included).
func ListItems(b []byte) ([][]byte, error) {
	content, rest, err := SplitList(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, ErrTrailingBytes
	}
	var items [][]byte
	for len(content) > 0 {
		_, ts, cs, err := readKind(content)
		if err != nil {
			return nil, err
		}
		items = append(items, content[:ts+cs])
		content = content[ts+cs:]
	}
	return items, nil
}

// Item returns the raw encoding of element i of the list item b.
func Item(b []byte, i int) ([]byte, error) {
	content, _, err := SplitList(b)
	if err != nil {
		return nil, err
	}
	for n := 0; len(content) > 0; n++ {
		_, ts, cs, err := readKind(content)
		if err != nil {
			return nil, err
		}
		if n == i {
			return content[:ts+cs], nil
		}
		content = content[ts+cs:]
	}
	return nil, ErrIndexOutOfRange
}

// Bytes returns the payload of a complete string item.
func Bytes(b []byte) ([]byte, error) {
	content, rest, err := SplitString(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, ErrTrailingBytes
	}
	return content, nil
}

// readKind parses the header at the front of buf and returns the kind, the
// header size and the payload size.
func readKind(buf []byte) (k Kind, tagsize, contentsize uint64, err error) {
	if len(buf) == 0 {
		return 0, 0, 0, io.ErrUnexpectedEOF
	}
	b := buf[0]
	switch {
	case b < 0x80:
		k, tagsize, contentsize = Byte, 0, 1
	case b < 0xB8:
		k, tagsize, contentsize = String, 1, uint64(b-0x80)
		if contentsize == 1 && len(buf) > 1 && buf[1] < 128 {
			return 0, 0, 0, ErrCanonSize
		}
	case b < 0xC0:
		k, tagsize = String, uint64(b-0xB7)+1
		contentsize, err = readSize(buf[1:], b-0xB7)
	case b < 0xF8:
		k, tagsize, contentsize = List, 1, uint64(b-0xC0)
	default:
		k, tagsize = List, uint64(b-0xF7)+1
		contentsize, err = readSize(buf[1:], b-0xF7)
	}
	if err != nil {
		return 0, 0, 0, err
	}
	if contentsize > uint64(len(buf))-tagsize {
		return 0, 0, 0, ErrValueTooLarge
	}
	return k, tagsize, contentsize, nil
}

// readSize reads a big-endian size field of slen bytes.
func readSize(b []byte, slen byte) (uint64, error) {
	if int(slen) > len(b) {
		return 0, io.ErrUnexpectedEOF
	}
	if b[0] == 0 {
		return 0, ErrCanonInt
	}
	var s uint64
	for _, x := range b[:slen] {
		s = s<<8 | uint64(x)
	}
	if s < 56 {
		return 0, ErrCanonSize
	}
	return s, nil
}

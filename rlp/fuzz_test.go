package rlp

import (
	"testing"
)

func FuzzSplit(f *testing.F) {
	f.Add([]byte{0x80})                                                 // empty string
	f.Add([]byte{0x83, 0x64, 0x6f, 0x67})                               // "dog"
	f.Add([]byte{0x7f})                                                 // uint(127)
	f.Add([]byte{0x82, 0x04, 0x00})                                     // uint(1024)
	f.Add([]byte{0xc0})                                                 // empty list
	f.Add([]byte{0xc8, 0x83, 0x63, 0x61, 0x74, 0x83, 0x64, 0x6f, 0x67}) // ["cat","dog"]

	f.Fuzz(func(t *testing.T, data []byte) {
		_, content, rest, err := Split(data)
		if err == nil && len(content)+len(rest) > len(data) {
			t.Fatalf("split produced more bytes than input")
		}
		_, _ = ListItems(data)
		_, _ = Item(data, 1)
		_, _, _ = SplitUint64(data)
	})
}

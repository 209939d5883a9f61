package rlp

import (
	"math/big"

	"github.com/eth2030/stateless/buffer"
)

// EncodeBytes returns the string encoding of data.
func EncodeBytes(data []byte) []byte {
	b := buffer.NewWithCapacity(len(data) + 9)
	AppendBytes(b, data)
	return b.Bytes()
}

// EncodeUint64 returns the canonical integer encoding of u.
func EncodeUint64(u uint64) []byte {
	return EncodeBytes(putUintBigEndian(u))
}

// EncodeBig returns the canonical integer encoding of a non-negative i.
// A nil value encodes as zero.
func EncodeBig(i *big.Int) []byte {
	if i == nil {
		return []byte{0x80}
	}
	return EncodeBytes(i.Bytes())
}

// EncodeList wraps already-encoded items in a list header.
func EncodeList(items ...[]byte) []byte {
	size := 0
	for _, it := range items {
		size += len(it)
	}
	b := buffer.NewWithCapacity(size + 9)
	appendHeader(b, 0xC0, uint64(size))
	for _, it := range items {
		b.Write(it)
	}
	return b.Bytes()
}

// WrapList wraps an already-encoded list payload in a list header.
func WrapList(payload []byte) []byte {
	return EncodeList(payload)
}

// AppendBytes writes the string encoding of data into b.
func AppendBytes(b *buffer.Buffer, data []byte) {
	if len(data) == 1 && data[0] <= 0x7f {
		b.WriteByte(data[0])
		return
	}
	appendHeader(b, 0x80, uint64(len(data)))
	b.Write(data)
}

// AppendUint64 writes the canonical integer encoding of u into b.
func AppendUint64(b *buffer.Buffer, u uint64) {
	AppendBytes(b, putUintBigEndian(u))
}

// appendHeader writes a string (base 0x80) or list (base 0xC0) header.
func appendHeader(b *buffer.Buffer, base byte, size uint64) {
	if size <= 55 {
		b.WriteByte(base + byte(size))
		return
	}
	lenBytes := putUintBigEndian(size)
	b.WriteByte(base + 55 + byte(len(lenBytes)))
	b.Write(lenBytes)
}

// putUintBigEndian encodes u as big-endian with no leading zeros; zero
// becomes the empty string.
func putUintBigEndian(u uint64) []byte {
	var out []byte
	for shift := 56; shift >= 0; shift -= 8 {
		c := byte(u >> uint(shift))
		if c == 0 && len(out) == 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

package buffer

import (
	"bytes"
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Allocation modes
// ---------------------------------------------------------------------------

func TestBuffer_DynamicGrows(t *testing.T) {
	b := New()
	for i := 0; i < 1000; i++ {
		if err := b.WriteByte(byte(i)); err != nil {
			t.Fatalf("WriteByte(%d): %v", i, err)
		}
	}
	if b.Len() != 1000 {
		t.Fatalf("Len = %d, want 1000", b.Len())
	}
	if b.Bytes()[999] != byte(999%256) {
		t.Fatalf("last byte = %d", b.Bytes()[999])
	}
}

func TestBuffer_PresizedKeepsCapacity(t *testing.T) {
	b := NewWithCapacity(128)
	if b.Cap() != 128 {
		t.Fatalf("Cap = %d, want 128", b.Cap())
	}
	b.Zeros(100)
	if b.Cap() != 128 {
		t.Fatalf("Cap after 100 bytes = %d, want 128", b.Cap())
	}
	b.Zeros(100)
	if b.Len() != 200 || b.Mode() != Presized {
		t.Fatalf("Len = %d mode = %d", b.Len(), b.Mode())
	}
}

func TestBuffer_FixedTruncates(t *testing.T) {
	backing := make([]byte, 4)
	b := NewFixed(backing)
	n, err := b.Write([]byte{1, 2, 3, 4, 5, 6})
	if n != 4 || !errors.Is(err, ErrOverflow) {
		t.Fatalf("Write = (%d, %v), want (4, ErrOverflow)", n, err)
	}
	if !bytes.Equal(backing, []byte{1, 2, 3, 4}) {
		t.Fatalf("backing = %x", backing)
	}
	if !b.Overflowed() || b.Err() == nil {
		t.Fatal("overflow not recorded")
	}
	b.Reset()
	if b.Overflowed() || b.Len() != 0 {
		t.Fatal("Reset did not clear state")
	}
}

// ---------------------------------------------------------------------------
// Editing
// ---------------------------------------------------------------------------

func TestBuffer_Splice(t *testing.T) {
	tests := []struct {
		offset, del int
		ins         []byte
		want        []byte
	}{
		{0, 0, []byte{9}, []byte{9, 1, 2, 3, 4}},
		{2, 1, []byte{7, 7}, []byte{1, 2, 7, 7, 4}},
		{4, 0, []byte{5}, []byte{1, 2, 3, 4, 5}},
		{1, 10, nil, []byte{1}},
		{10, 0, []byte{8}, []byte{1, 2, 3, 4, 8}},
	}
	for i, tt := range tests {
		b := From([]byte{1, 2, 3, 4})
		b.Splice(tt.offset, tt.del, tt.ins)
		if !bytes.Equal(b.Bytes(), tt.want) {
			t.Fatalf("case %d: got %x, want %x", i, b.Bytes(), tt.want)
		}
	}
}

func TestBuffer_IntegersAndPatch(t *testing.T) {
	b := New()
	b.AppendUint32LE(0)
	b.AppendUint16BE(0x0102)
	b.AppendUint64LE(1)
	if !b.PutUint32LE(0, 0xdeadbeef) {
		t.Fatal("PutUint32LE failed in range")
	}
	if b.PutUint32LE(12, 1) {
		t.Fatal("PutUint32LE succeeded out of range")
	}
	want := []byte{0xef, 0xbe, 0xad, 0xde, 1, 2, 1, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("got %x, want %x", b.Bytes(), want)
	}
}

func TestBuffer_Hex(t *testing.T) {
	b := New()
	if err := b.AppendHex("0xabc"); err != nil {
		t.Fatalf("AppendHex: %v", err)
	}
	if b.Hex() != "0x0abc" {
		t.Fatalf("Hex = %s", b.Hex())
	}
	if err := b.AppendHex("zz"); err == nil {
		t.Fatal("expected error for invalid hex")
	}
	if b.Slice(1, 1)[0] != 0xbc || b.Slice(1, 5) != nil {
		t.Fatal("Slice bounds")
	}
}

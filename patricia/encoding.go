package patricia

// Keys are walked as nibble paths. keybytesToHex expands every byte into two
// nibbles and appends the terminator; compact (hex-prefix) encoding packs a
// path back into bytes with a flag nibble in front:
//
//	bit 1: leaf (the path carried a terminator)
//	bit 0: odd nibble count; the first nibble shares the flag byte

const terminator = 16

func keybytesToHex(key []byte) []byte {
	nibbles := make([]byte, len(key)*2+1)
	for i, b := range key {
		nibbles[i*2] = b >> 4
		nibbles[i*2+1] = b & 0x0f
	}
	nibbles[len(nibbles)-1] = terminator
	return nibbles
}

func hexToCompact(hex []byte) []byte {
	var flags byte
	if hasTerm(hex) {
		flags = 2
		hex = hex[:len(hex)-1]
	}
	out := make([]byte, len(hex)/2+1)
	if len(hex)&1 == 1 {
		flags |= 1
		out[0] = flags<<4 | hex[0]
		hex = hex[1:]
	} else {
		out[0] = flags << 4
	}
	for i := 0; i < len(hex); i += 2 {
		out[1+i/2] = hex[i]<<4 | hex[i+1]
	}
	return out
}

// compactToHex decodes a hex-prefix path. Leaf paths get the terminator
// back. ok is false for an empty input or an unknown flag nibble.
func compactToHex(compact []byte) (nibbles []byte, ok bool) {
	if len(compact) == 0 {
		return nil, false
	}
	flags := compact[0] >> 4
	if flags > 3 {
		return nil, false
	}
	if flags&1 == 0 && compact[0]&0x0f != 0 {
		return nil, false
	}
	nibbles = make([]byte, 0, len(compact)*2)
	if flags&1 == 1 {
		nibbles = append(nibbles, compact[0]&0x0f)
	}
	for _, b := range compact[1:] {
		nibbles = append(nibbles, b>>4, b&0x0f)
	}
	if flags&2 != 0 {
		nibbles = append(nibbles, terminator)
	}
	return nibbles, true
}

func prefixLen(a, b []byte) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func hasTerm(s []byte) bool {
	return len(s) > 0 && s[len(s)-1] == terminator
}

package btree

import "io"

// Variable-length integer encoding/decoding (SQLite format)
// Based on SQLite's varint implementation

// ReadVarint reads a 64-bit variable-length integer from r and returns the
// value and the number of bytes consumed. The encoding uses the lower 7 bits
// of each byte with the high bit (0x80) set on all bytes except the last,
// most significant byte first. A ninth byte, if reached, contributes all 8
// of its bits and never carries a continuation flag.
//
// On a read failure the underlying error is returned along with the number
// of bytes consumed before it.
func ReadVarint(r io.ByteReader) (uint64, int, error) {
	var v uint64
	for i := 0; i < 8; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, i, err
		}
		v = (v << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}

	b, err := r.ReadByte()
	if err != nil {
		return 0, 8, err
	}
	return (v << 8) | uint64(b), 9, nil
}

// GetVarint reads a 64-bit variable-length integer from p and returns
// the value and the number of bytes read. It returns (0, 0) if p does not
// hold a complete varint.
func GetVarint(p []byte) (uint64, int) {
	// Fast path for 1-byte case
	if len(p) > 0 && p[0] < 0x80 {
		return uint64(p[0]), 1
	}

	r := sliceReader{p: p}
	v, n, err := ReadVarint(&r)
	if err != nil {
		return 0, 0
	}
	return v, n
}

// sliceReader adapts a byte slice to io.ByteReader so the stream decoder
// serves the buffer case too.
type sliceReader struct {
	p []byte
	i int
}

func (r *sliceReader) ReadByte() (byte, error) {
	if r.i >= len(r.p) {
		return 0, io.EOF
	}
	b := r.p[r.i]
	r.i++
	return b, nil
}

// PutVarint writes a 64-bit unsigned integer to p and returns the number of
// bytes written. p must have room for up to 9 bytes.
func PutVarint(p []byte, v uint64) int {
	if v <= 0x7f {
		p[0] = byte(v & 0x7f)
		return 1
	}
	if v <= 0x3fff {
		p[0] = byte((v>>7)&0x7f) | 0x80
		p[1] = byte(v & 0x7f)
		return 2
	}
	return putVarint64(p, v)
}

// putVarint64 handles the general case of encoding a 64-bit varint
func putVarint64(p []byte, v uint64) int {
	if v&(uint64(0xff000000)<<32) != 0 {
		// 9-byte case: all 8 bits of the 9th byte are used
		p[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			p[i] = byte((v & 0x7f) | 0x80)
			v >>= 7
		}
		return 9
	}

	// Count how many 7-bit groups we need
	n := 1
	temp := v >> 7
	for temp > 0 {
		n++
		temp >>= 7
	}

	// Encode from most significant to least significant
	for i := n - 1; i >= 0; i-- {
		shift := uint(i * 7)
		b := byte((v >> shift) & 0x7f)
		if i > 0 {
			b |= 0x80 // Set continuation bit for all except last byte
		}
		p[n-1-i] = b
	}
	return n
}

// VarintLen returns the number of bytes required to encode v as a varint
func VarintLen(v uint64) int {
	if v <= 0x7f {
		return 1
	}
	if v <= 0x3fff {
		return 2
	}
	if v <= 0x1fffff {
		return 3
	}
	if v <= 0xfffffff {
		return 4
	}
	if v <= 0x7ffffffff {
		return 5
	}
	if v <= 0x3ffffffffff {
		return 6
	}
	if v <= 0x1ffffffffffff {
		return 7
	}
	if v <= 0xffffffffffffff {
		return 8
	}
	return 9
}

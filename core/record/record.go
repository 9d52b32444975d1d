// Package record decodes SQLite record payloads. A record is a header of
// serial-type varints followed by a data area; the header begins with a
// varint giving the total header size, that varint included.
//
// Decoded values use the dynamic types the format implies: nil, int64,
// float64, string, or []byte.
package record

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/litescope/litescope/core/errors"
)

// SerialTypeLen returns the number of data-area bytes occupied by a value of
// the given serial type.
func SerialTypeLen(serialType uint64) uint64 {
	switch serialType {
	case 0, 8, 9, 10, 11:
		return 0
	case 1:
		return 1
	case 2:
		return 2
	case 3:
		return 3
	case 4:
		return 4
	case 5:
		return 6
	case 6, 7:
		return 8
	}
	if serialType >= 12 {
		if serialType%2 == 0 {
			return (serialType - 12) / 2
		}
		return (serialType - 13) / 2
	}
	return 0
}

// DecodeRecord decodes a record payload into its column values. A positive
// maxColumns stops decoding after that many columns even when the header
// declares more; zero or negative decodes them all.
//
// A missing or oversized header-size varint yields an error; callers
// scanning many records treat that as a damaged row rather than a damaged
// file. Truncation below the header's declared shape is not an error: the
// row keeps the columns that decoded cleanly and loses the rest.
func DecodeRecord(payload []byte, maxColumns int) ([]any, error) {
	c := NewCursor(payload)

	headerSize, err := c.ReadVarint()
	if err != nil {
		return nil, err
	}
	if headerSize > uint64(len(payload)) {
		return nil, errors.NewDecode("record", 0, "header size exceeds payload")
	}

	// Collect serial types until the header region is exhausted. The size
	// includes its own varint, so the region runs from here to headerSize.
	// A serial-type varint cut off by the end of the payload ends the
	// column list; the columns before it stand.
	var types []uint64
	for uint64(c.Offset()) < headerSize {
		if maxColumns > 0 && len(types) == maxColumns {
			break
		}
		st, err := c.ReadVarint()
		if err != nil {
			break
		}
		types = append(types, st)
	}

	// The data area begins exactly where the header says it ends, even if
	// the last serial-type varint straddled that boundary.
	if err := c.SeekTo(int(headerSize)); err != nil {
		return nil, err
	}

	// A column whose data runs past the end of the payload ends the row
	// there. The decoded prefix is the row; no value ever reads out of
	// bounds.
	values := make([]any, 0, len(types))
	for _, st := range types {
		v, err := decodeValue(c, st)
		if err != nil {
			break
		}
		values = append(values, v)
	}
	return values, nil
}

// decodeValue reads one value of the given serial type from the cursor.
func decodeValue(c *Cursor, serialType uint64) (any, error) {
	switch serialType {
	case 0:
		return nil, nil
	case 1:
		b, err := c.Take(1)
		if err != nil {
			return nil, err
		}
		return int64(int8(b[0])), nil
	case 2:
		b, err := c.Take(2)
		if err != nil {
			return nil, err
		}
		return int64(int16(binary.BigEndian.Uint16(b))), nil
	case 3:
		b, err := c.Take(3)
		if err != nil {
			return nil, err
		}
		v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
		if v&0x800000 != 0 {
			v |= 0xff000000 // sign extend
		}
		return int64(int32(v)), nil
	case 4:
		b, err := c.Take(4)
		if err != nil {
			return nil, err
		}
		return int64(int32(binary.BigEndian.Uint32(b))), nil
	case 5:
		b, err := c.Take(6)
		if err != nil {
			return nil, err
		}
		v := uint64(b[0])<<40 | uint64(b[1])<<32 | uint64(b[2])<<24 |
			uint64(b[3])<<16 | uint64(b[4])<<8 | uint64(b[5])
		if v&0x800000000000 != 0 {
			v |= 0xffff000000000000 // sign extend
		}
		return int64(v), nil
	case 6:
		b, err := c.Take(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	case 7:
		b, err := c.Take(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	case 8:
		return int64(0), nil
	case 9:
		return int64(1), nil
	case 10, 11:
		// Reserved types carry no data.
		return nil, nil
	}

	n := SerialTypeLen(serialType)
	b, err := c.Take(int(n))
	if err != nil {
		return nil, err
	}
	if serialType%2 == 0 {
		// BLOB
		blob := make([]byte, n)
		copy(blob, b)
		return blob, nil
	}
	return decodeText(b), nil
}

// decodeText converts payload bytes to a string, replacing invalid UTF-8
// sequences with U+FFFD rather than failing.
func decodeText(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// AsText returns the value as a string. TEXT values return themselves, BLOBs
// decode lossily, everything else returns the empty string.
func AsText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return decodeText(s)
	}
	return ""
}

// AsInt returns the value as an integer, or 0 when it is not one.
func AsInt(v any) int64 {
	if i, ok := v.(int64); ok {
		return i
	}
	return 0
}

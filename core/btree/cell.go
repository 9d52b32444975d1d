package btree

import (
	"fmt"
	"io"

	"github.com/litescope/litescope/core/errors"
)

// CellInfo contains parsed information about a table leaf cell
type CellInfo struct {
	RowID       int64  // The integer key
	Payload     []byte // Record payload
	PayloadSize uint64 // Declared payload size in bytes
	HeaderLen   int    // Bytes occupied by the two leading varints
	CellSize    int    // Total size of cell on the page
}

// ReadTableLeafCellHeader reads the payload-size and rowid varints that begin
// a table leaf cell. It returns the total number of bytes consumed, which is
// valid even when err is non-nil.
//
// Format: varint(payload_size), varint(rowid), payload
func ReadTableLeafCellHeader(r io.ByteReader) (payloadSize uint64, rowid int64, n int, err error) {
	payloadSize, pn, err := ReadVarint(r)
	n += pn
	if err != nil {
		return 0, 0, n, errors.Wrap(err, "read payload size")
	}

	key, rn, err := ReadVarint(r)
	n += rn
	if err != nil {
		return 0, 0, n, errors.Wrap(err, "read rowid")
	}

	return payloadSize, int64(key), n, nil
}

// ParseTableLeafCell parses a table leaf cell from a page buffer. The payload
// is assumed to be entirely local; cells that spill to overflow pages are not
// handled.
func ParseTableLeafCell(cellData []byte) (*CellInfo, error) {
	if len(cellData) == 0 {
		return nil, errors.NewTruncated("table leaf cell", 0)
	}

	info := &CellInfo{}
	offset := 0

	// Read payload size (varint)
	payloadSize, n := GetVarint(cellData)
	if n == 0 {
		return nil, errors.NewTruncated("cell payload size", int64(offset))
	}
	info.PayloadSize = payloadSize
	offset += n

	// Read rowid (varint)
	rowid, n := GetVarint(cellData[offset:])
	if n == 0 {
		return nil, errors.NewTruncated("cell rowid", int64(offset))
	}
	info.RowID = int64(rowid)
	offset += n
	info.HeaderLen = offset

	if uint64(len(cellData)-offset) < payloadSize {
		return nil, errors.NewTruncated("cell payload", int64(len(cellData)))
	}
	info.Payload = cellData[offset : offset+int(payloadSize)]
	info.CellSize = offset + int(payloadSize)

	return info, nil
}

// String returns a string representation of the cell info
func (c *CellInfo) String() string {
	return fmt.Sprintf("CellInfo{rowid=%d, payloadSize=%d, headerLen=%d, cellSize=%d}",
		c.RowID, c.PayloadSize, c.HeaderLen, c.CellSize)
}

// EncodeTableLeafCell encodes a table leaf cell with the given rowid and payload
// Format: varint(payload_size), varint(rowid), payload
func EncodeTableLeafCell(rowid int64, payload []byte) []byte {
	payloadSize := uint64(len(payload))

	// Max varint size is 9 bytes, so allocate enough space
	buf := make([]byte, 9+9+len(payload))
	offset := 0

	// Write payload size
	n := PutVarint(buf[offset:], payloadSize)
	offset += n

	// Write rowid
	n = PutVarint(buf[offset:], uint64(rowid))
	offset += n

	// Write payload
	copy(buf[offset:], payload)
	offset += len(payload)

	// Return the actual used portion
	return buf[:offset]
}

package record

import (
	"io"

	"github.com/litescope/litescope/core/btree"
	"github.com/litescope/litescope/core/errors"
)

// Cursor walks a byte buffer while tracking its offset. It implements
// io.ByteReader so the varint decoder in core/btree runs over it unchanged.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor returns a cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Offset returns the current position in the buffer.
func (c *Cursor) Offset() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// SeekTo moves the cursor to an absolute offset within the buffer.
func (c *Cursor) SeekTo(offset int) error {
	if offset < 0 || offset > len(c.data) {
		return errors.NewDecode("cursor", int64(offset), "seek beyond buffer")
	}
	c.pos = offset
	return nil
}

// Take returns the next n bytes as a subslice of the buffer and advances
// past them.
func (c *Cursor) Take(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, errors.NewTruncated("cursor", int64(c.pos))
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadByte implements io.ByteReader.
func (c *Cursor) ReadByte() (byte, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

// ReadVarint decodes the varint at the current position and advances past it.
func (c *Cursor) ReadVarint() (uint64, error) {
	start := c.pos
	v, _, err := btree.ReadVarint(c)
	if err != nil {
		return 0, errors.NewTruncated("varint", int64(start))
	}
	return v, nil
}

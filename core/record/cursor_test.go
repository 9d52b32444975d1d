package record

import (
	"bytes"
	"errors"
	"io"
	"testing"

	lserrors "github.com/litescope/litescope/core/errors"
)

func TestCursor_TakeAndOffset(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3, 4, 5})

	b, err := c.Take(2)
	if err != nil {
		t.Fatalf("Take(2) error = %v", err)
	}
	if !bytes.Equal(b, []byte{1, 2}) {
		t.Errorf("Take(2) = %v", b)
	}
	if c.Offset() != 2 {
		t.Errorf("Offset() = %d, want 2", c.Offset())
	}
	if c.Remaining() != 3 {
		t.Errorf("Remaining() = %d, want 3", c.Remaining())
	}

	// Taking zero bytes is valid anywhere, including at the end.
	if _, err := c.Take(0); err != nil {
		t.Errorf("Take(0) error = %v", err)
	}

	if _, err := c.Take(4); !errors.Is(err, lserrors.ErrTruncated) {
		t.Errorf("Take(4) error = %v, want ErrTruncated", err)
	}
	if _, err := c.Take(-1); err == nil {
		t.Error("Take(-1) expected error")
	}
}

func TestCursor_SeekTo(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3})

	if err := c.SeekTo(3); err != nil {
		t.Errorf("SeekTo(3) error = %v", err)
	}
	if err := c.SeekTo(0); err != nil {
		t.Errorf("SeekTo(0) error = %v", err)
	}
	if err := c.SeekTo(4); err == nil {
		t.Error("SeekTo(4) expected error")
	}
	if err := c.SeekTo(-1); err == nil {
		t.Error("SeekTo(-1) expected error")
	}
}

func TestCursor_ReadByte(t *testing.T) {
	c := NewCursor([]byte{0xab})

	b, err := c.ReadByte()
	if err != nil || b != 0xab {
		t.Errorf("ReadByte() = %#x, %v", b, err)
	}
	if _, err := c.ReadByte(); err != io.EOF {
		t.Errorf("ReadByte() at end = %v, want io.EOF", err)
	}
}

func TestCursor_ReadVarint(t *testing.T) {
	// 0x81 0x02 encodes 130; a following 0x07 encodes itself.
	c := NewCursor([]byte{0x81, 0x02, 0x07})

	v, err := c.ReadVarint()
	if err != nil {
		t.Fatalf("ReadVarint() error = %v", err)
	}
	if v != 130 {
		t.Errorf("ReadVarint() = %d, want 130", v)
	}
	if c.Offset() != 2 {
		t.Errorf("Offset() = %d, want 2", c.Offset())
	}

	v, err = c.ReadVarint()
	if err != nil || v != 7 {
		t.Errorf("ReadVarint() = %d, %v; want 7, nil", v, err)
	}
}

func TestCursor_ReadVarintTruncated(t *testing.T) {
	c := NewCursor([]byte{0x05, 0x85})
	if _, err := c.ReadVarint(); err != nil {
		t.Fatalf("first ReadVarint() error = %v", err)
	}

	_, err := c.ReadVarint()
	if !errors.Is(err, lserrors.ErrTruncated) {
		t.Errorf("error = %v, want ErrTruncated", err)
	}

	var de *lserrors.DecodeError
	if !errors.As(err, &de) {
		t.Fatal("error should be a DecodeError")
	}
	if de.Offset != 1 {
		t.Errorf("Offset = %d, want 1 (where the varint began)", de.Offset)
	}
}

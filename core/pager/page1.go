package pager

import (
	"encoding/binary"
	"io"

	"github.com/litescope/litescope/core/errors"
)

// Page1InfoSize is the prefix of the file that holds both facts Page1Info
// reports: the 100-byte file header followed by the first 8 bytes of the
// page-1 b-tree header.
const Page1InfoSize = 108

// page1CellCountOffset is the absolute file offset of the page-1 cell count:
// two bytes into the b-tree page header that starts right after the file
// header.
const page1CellCountOffset = FileHeaderSize + 3

// Page1Info holds the two fields read straight off the first page. Both are
// reported exactly as stored: the page size field keeps the raw value 1 for
// 65536-byte pages, and the cell count is whatever page 1 declares, whether
// or not the schema spills onto further pages.
type Page1Info struct {
	PageSize uint16
	NumCells uint16
}

// ReadPage1Info reads the first 108 bytes of the database and extracts the
// page size and page-1 cell count. Nothing is validated, not even the magic
// string; a short read is the only failure.
func ReadPage1Info(r io.ReaderAt) (*Page1Info, error) {
	buf := make([]byte, Page1InfoSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, errors.NewIO("read first page", "", err)
	}

	return &Page1Info{
		PageSize: binary.BigEndian.Uint16(buf[OffsetPageSize:]),
		NumCells: binary.BigEndian.Uint16(buf[page1CellCountOffset:]),
	}, nil
}

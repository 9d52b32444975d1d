// Package schema scans the first page of a SQLite database file for the
// rows of the sqlite_master table.
//
// The schema table lives in a table b-tree rooted at page 1. This package
// handles the single-page case: it reads the leaf header that follows the
// 100-byte file header, walks the cell pointer array, and decodes every
// table-leaf cell as a five-column schema record. Damaged cells are
// reported and skipped rather than failing the scan; only damage to the
// page structure itself (the header prefix or the pointer array) is fatal.
package schema

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/litescope/litescope/core/btree"
	"github.com/litescope/litescope/core/errors"
	"github.com/litescope/litescope/core/pager"
	"github.com/litescope/litescope/core/record"
)

// sqlite_master column positions.
const (
	colType     = 0
	colName     = 1
	colTblName  = 2
	colRootPage = 3
	colSQL      = 4

	// schemaColumns is the column count of sqlite_master. Record decoding
	// stops here, so trailing garbage in a damaged record header cannot
	// spoil the columns that matter.
	schemaColumns = 5
)

// DefaultMaxCells bounds how many cell pointers a scan follows. The cell
// count is a raw 16-bit field, so the default admits every value a page
// can declare.
const DefaultMaxCells = 65536

// pointerArrayOffset is where page 1's cell pointer array begins: the
// 100-byte file header plus the 8-byte leaf page header.
const pointerArrayOffset = int64(pager.Page1InfoSize)

// Source is the read surface a scan needs. *pager.File, *pager.Reader and
// *bytes.Reader all satisfy it.
type Source interface {
	io.ReaderAt
	Size() int64
}

// Row is one sqlite_master entry.
//
// The typed fields are projections of Values: text columns through
// record.AsText, the root page through record.AsInt. Values keeps the
// decoded columns with their dynamic types, so callers can tell a genuine
// TEXT column apart from the lossy rendering of some other type.
type Row struct {
	Type     string
	Name     string
	TblName  string
	RootPage int64
	SQL      string

	// RowID is the cell's rowid. sqlite_master is a rowid table, so this
	// is its position in the b-tree, not a schema fact.
	RowID int64

	// Values holds the decoded columns, at most schemaColumns of them. A
	// short record yields a short slice rather than an error.
	Values []any
}

// Result is the outcome of scanning page 1.
type Result struct {
	// Page1 carries the raw header fields the scan started from.
	Page1 *pager.Page1Info

	// Rows holds the successfully decoded schema rows in cell pointer
	// array order.
	Rows []Row

	// Skipped records the cells that could not be decoded, in the order
	// they were encountered.
	Skipped []*errors.RowError

	// Truncated is set when the page declared more cells than the scan
	// was allowed to follow.
	Truncated bool
}

// ScanPage1 reads the schema rows stored on the first page of the
// database. maxCells bounds the number of cells followed; values <= 0
// fall back to DefaultMaxCells.
//
// Per-cell damage (an unreadable varint, a payload that runs past the end
// of the file, a record header larger than its payload) lands in
// Result.Skipped. Damage to the page structure itself, meaning the
// 108-byte prefix or the cell pointer array, fails the whole scan.
func ScanPage1(src Source, maxCells int) (*Result, error) {
	info, err := pager.ReadPage1Info(src)
	if err != nil {
		return nil, err
	}

	result := &Result{Page1: info}

	cells := int(info.NumCells)
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	if cells > maxCells {
		cells = maxCells
		result.Truncated = true
	}
	if cells == 0 {
		return result, nil
	}

	// Page 1 pointers are absolute file offsets already, no page base to
	// add.
	arr := make([]byte, 2*cells)
	if _, err := src.ReadAt(arr, pointerArrayOffset); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.NewTruncated("cell pointer array", pointerArrayOffset)
		}
		return nil, errors.NewIO("read cell pointer array", "", err)
	}

	size := src.Size()
	for i := 0; i < cells; i++ {
		ptr := binary.BigEndian.Uint16(arr[2*i:])
		row, err := readCell(src, size, ptr)
		if err != nil {
			result.Skipped = append(result.Skipped, errors.NewRow(i, ptr, err))
			continue
		}
		result.Rows = append(result.Rows, *row)
	}
	return result, nil
}

// Tables returns the tbl_name column of every row whose type column is
// the TEXT value "table", in pointer array order. Rows where either
// column is missing or holds a non-TEXT value are left out; an empty
// TEXT tbl_name is kept.
func (r *Result) Tables() []string {
	names := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		if len(row.Values) <= colTblName {
			continue
		}
		typ, ok := row.Values[colType].(string)
		if !ok || typ != "table" {
			continue
		}
		name, ok := row.Values[colTblName].(string)
		if !ok {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Find returns the first row whose name column equals name, or nil.
func (r *Result) Find(name string) *Row {
	for i := range r.Rows {
		if r.Rows[i].Name == name {
			return &r.Rows[i]
		}
	}
	return nil
}

func readCell(src Source, size int64, ptr uint16) (*Row, error) {
	if int64(ptr) >= size {
		return nil, errors.NewTruncated("cell", int64(ptr))
	}

	sect := io.NewSectionReader(src, int64(ptr), size-int64(ptr))
	br := bufio.NewReader(sect)

	payloadSize, rowid, n, err := btree.ReadTableLeafCellHeader(br)
	if err != nil {
		return nil, err
	}
	if payloadSize > uint64(size-int64(ptr)-int64(n)) {
		return nil, errors.NewTruncated("cell payload", int64(ptr)+int64(n))
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, errors.NewIO("read cell payload", "", err)
	}

	values, err := record.DecodeRecord(payload, schemaColumns)
	if err != nil {
		return nil, err
	}

	return &Row{
		Type:     textAt(values, colType),
		Name:     textAt(values, colName),
		TblName:  textAt(values, colTblName),
		RootPage: intAt(values, colRootPage),
		SQL:      textAt(values, colSQL),
		RowID:    rowid,
		Values:   values,
	}, nil
}

func textAt(values []any, col int) string {
	if col >= len(values) {
		return ""
	}
	return record.AsText(values[col])
}

func intAt(values []any, col int) int64 {
	if col >= len(values) {
		return 0
	}
	return record.AsInt(values[col])
}

package fixture

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/litescope/litescope/core/btree"
	"github.com/litescope/litescope/core/pager"
)

// SchemaRow is one sqlite_master row for RawDB to place on the first
// page. An empty SQL is stored as NULL, the way SQLite stores it for
// automatic indexes.
type SchemaRow struct {
	Type     string
	Name     string
	TblName  string
	RootPage int64
	SQL      string
}

// Table returns a SchemaRow describing a table named name with the given
// CREATE statement.
func Table(name, createSQL string) SchemaRow {
	return SchemaRow{Type: "table", Name: name, TblName: name, RootPage: 2, SQL: createSQL}
}

// EncodeSchemaRecord encodes row in the record format, five columns in
// sqlite_master order.
func EncodeSchemaRecord(row SchemaRow) []byte {
	var types, body []byte

	appendText := func(s string) {
		types = appendVarint(types, 13+2*uint64(len(s)))
		body = append(body, s...)
	}

	appendText(row.Type)
	appendText(row.Name)
	appendText(row.TblName)

	st, data := encodeInt(row.RootPage)
	types = appendVarint(types, st)
	body = append(body, data...)

	if row.SQL == "" {
		types = append(types, 0)
	} else {
		appendText(row.SQL)
	}

	// The header size varint counts itself, so its width feeds back into
	// the value it encodes.
	hs := len(types) + 1
	for btree.VarintLen(uint64(hs))+len(types) != hs {
		hs = len(types) + btree.VarintLen(uint64(hs))
	}

	record := make([]byte, 0, hs+len(body))
	record = appendVarint(record, uint64(hs))
	record = append(record, types...)
	record = append(record, body...)
	return record
}

// RawDB assembles a single-page database image holding the given schema
// rows, assigning rowids 1..n in order. Cells fill the page from the end
// downward, so the cell pointer array preserves row order while the byte
// offsets reverse it.
func RawDB(tb testing.TB, pageSize int, rows []SchemaRow) []byte {
	tb.Helper()

	page := make([]byte, pageSize)
	copy(page, pager.NewFileHeader(pageSize).Serialize())

	page[pager.FileHeaderSize] = btree.PageTypeLeafTable
	binary.BigEndian.PutUint16(page[103:105], uint16(len(rows)))

	top := pageSize
	ptrs := make([]uint16, len(rows))
	for i, row := range rows {
		cell := btree.EncodeTableLeafCell(int64(i+1), EncodeSchemaRecord(row))
		top -= len(cell)
		if top < pager.Page1InfoSize+2*len(rows) {
			tb.Fatalf("schema rows overflow a %d byte page", pageSize)
		}
		copy(page[top:], cell)
		ptrs[i] = uint16(top)
	}
	binary.BigEndian.PutUint16(page[105:107], uint16(top))
	for i, ptr := range ptrs {
		binary.BigEndian.PutUint16(page[pager.Page1InfoSize+2*i:], ptr)
	}
	return page
}

// WriteRawDB writes RawDB's image to a file named raw.db under dir and
// returns its path.
func WriteRawDB(tb testing.TB, dir string, pageSize int, rows []SchemaRow) string {
	tb.Helper()

	path := filepath.Join(dir, "raw.db")
	if err := os.WriteFile(path, RawDB(tb, pageSize, rows), 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

func appendVarint(p []byte, v uint64) []byte {
	buf := make([]byte, 9)
	n := btree.PutVarint(buf, v)
	return append(p, buf[:n]...)
}

func encodeInt(v int64) (uint64, []byte) {
	switch {
	case v == 0:
		return 8, nil
	case v == 1:
		return 9, nil
	case v >= -0x80 && v < 0x80:
		return 1, []byte{byte(v)}
	case v >= -0x8000 && v < 0x8000:
		return 2, []byte{byte(v >> 8), byte(v)}
	case v >= -0x800000 && v < 0x800000:
		return 3, []byte{byte(v >> 16), byte(v >> 8), byte(v)}
	case v >= -0x80000000 && v < 0x80000000:
		return 4, []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	case v >= -0x800000000000 && v < 0x800000000000:
		return 5, []byte{byte(v >> 40), byte(v >> 32), byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	default:
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(v))
		return 6, buf
	}
}

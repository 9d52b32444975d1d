// Package inspect ties the pager, schema, and record layers together into
// the inspection operations the CLI exposes.
package inspect

import (
	"fmt"
	"sync"

	"github.com/litescope/litescope/core/btree"
	"github.com/litescope/litescope/core/errors"
	"github.com/litescope/litescope/core/pager"
	"github.com/litescope/litescope/core/schema"
	"github.com/litescope/litescope/internal/logging"
)

// Options tunes how a database is opened.
type Options struct {
	// CacheBlocks caps the pager's block cache; values <= 0 use the
	// cache default.
	CacheBlocks int
	// MaxCells caps how many schema cells a scan follows; values <= 0
	// use schema.DefaultMaxCells.
	MaxCells int
}

// DB is an open database file ready for inspection.
type DB struct {
	file *pager.File
	opts Options

	mu     sync.Mutex
	result *schema.Result
}

// Open opens the database at path. Compressed files (gzip, xz) are
// transparently decompressed; see pager.Open.
func Open(path string, opts Options) (*DB, error) {
	f, err := pager.Open(path, opts.CacheBlocks)
	if err != nil {
		return nil, err
	}
	logging.FileOpened(path, f.Compression().String(), f.Size())
	return &DB{file: f, opts: opts}, nil
}

// Close releases the underlying file handle.
func (db *DB) Close() error {
	return db.file.Close()
}

// Path returns the path the database was opened from.
func (db *DB) Path() string {
	return db.file.Path()
}

// Compression reports how the file is stored on disk.
func (db *DB) Compression() pager.Compression {
	return db.file.Compression()
}

// Info is the material behind the .dbinfo command. Both numbers are raw
// stored fields: a page size of 1 is reported as 1, and NumTables is the
// first page's literal cell count, which counts every schema entry on
// that page, not only tables.
type Info struct {
	Path        string
	Compression pager.Compression
	PageSize    uint16
	NumTables   uint16
}

// Info reads the two fixed header fields the .dbinfo command reports. It
// touches only the first 108 bytes; damage anywhere else in the file
// cannot fail it.
func (db *DB) Info() (*Info, error) {
	p1, err := pager.ReadPage1Info(db.file)
	if err != nil {
		return nil, err
	}
	return &Info{
		Path:        db.file.Path(),
		Compression: db.file.Compression(),
		PageSize:    p1.PageSize,
		NumTables:   p1.NumCells,
	}, nil
}

// Schema scans the first page's schema table. The scan runs once per DB;
// later calls return the memoized result.
func (db *DB) Schema() (*schema.Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.result != nil {
		return db.result, nil
	}

	result, err := schema.ScanPage1(db.file, db.opts.MaxCells)
	if err != nil {
		return nil, err
	}
	for _, skip := range result.Skipped {
		logging.CellSkipped(skip.Cell, skip.Offset, skip.Err)
	}
	logging.ScanSummary(len(result.Rows), len(result.Skipped), result.Truncated, "path", db.file.Path())

	db.result = result
	return result, nil
}

// Tables lists the table names for the .tables command, in cell pointer
// array order.
func (db *DB) Tables() ([]string, error) {
	result, err := db.Schema()
	if err != nil {
		return nil, err
	}
	return result.Tables(), nil
}

// CreateSQL returns the stored CREATE statements for the .schema
// command in cell pointer array order. A non-empty table argument keeps
// only rows whose name or tbl_name matches it.
func (db *DB) CreateSQL(table string) ([]string, error) {
	result, err := db.Schema()
	if err != nil {
		return nil, err
	}

	var out []string
	for _, row := range result.Rows {
		if table != "" && row.Name != table && row.TblName != table {
			continue
		}
		if row.SQL == "" {
			continue
		}
		out = append(out, row.SQL)
	}
	return out, nil
}

// Columns parses the named table's CREATE statement for the .columns
// command.
func (db *DB) Columns(table string) (*schema.TableDef, error) {
	result, err := db.Schema()
	if err != nil {
		return nil, err
	}

	row := result.Find(table)
	if row == nil {
		return nil, fmt.Errorf("no such table: %s", table)
	}
	if row.SQL == "" {
		return nil, fmt.Errorf("no schema SQL stored for %s", table)
	}
	return schema.ParseCreateTable(row.SQL)
}

// PageReport is the decoded first page for the .pageinfo command.
//
// Cells is parallel to Pointers; entries that could not be parsed are
// nil, with the failure recorded in Warnings.
type PageReport struct {
	Header   *pager.FileHeader
	Page     *btree.PageHeader
	Pointers []uint16
	Cells    []*btree.CellInfo
	Warnings []string
}

// PageInfo decodes the file header and the page-1 b-tree header on the
// validated path: unlike Info, a bad magic string or page size is an
// error here. Field values that merely violate format rules are kept
// and reported as warnings. withCells additionally parses each cell's
// rowid and payload size.
func (db *DB) PageInfo(withCells bool) (*PageReport, error) {
	hdr := make([]byte, pager.FileHeaderSize)
	if _, err := db.file.ReadAt(hdr, 0); err != nil {
		return nil, errors.NewIO("read file header", db.file.Path(), err)
	}
	fh, err := pager.ParseFileHeader(hdr)
	if err != nil {
		return nil, err
	}

	report := &PageReport{Header: fh}
	if err := fh.Validate(); err != nil {
		logging.ValidationWarning("file header", err)
		report.Warnings = append(report.Warnings, err.Error())
	}

	pageSize := int64(fh.GetPageSize())
	if size := db.file.Size(); pageSize > size {
		pageSize = size
	}
	page := make([]byte, pageSize)
	if _, err := db.file.ReadAt(page, 0); err != nil {
		return nil, errors.NewIO("read first page", db.file.Path(), err)
	}

	ph, err := btree.ParsePageHeader(page, 1)
	if err != nil {
		return nil, err
	}
	report.Page = ph

	pointers, err := ph.GetCellPointers(page)
	if err != nil {
		return nil, err
	}
	report.Pointers = pointers

	if !withCells {
		return report, nil
	}

	for i, ptr := range pointers {
		if int(ptr) >= len(page) {
			warn := errors.NewRow(i, ptr, errors.NewTruncated("cell", int64(ptr)))
			logging.CellSkipped(i, ptr, warn.Err)
			report.Warnings = append(report.Warnings, warn.Error())
			report.Cells = append(report.Cells, nil)
			continue
		}
		cell, err := btree.ParseTableLeafCell(page[ptr:])
		if err != nil {
			warn := errors.NewRow(i, ptr, err)
			logging.CellSkipped(i, ptr, err)
			report.Warnings = append(report.Warnings, warn.Error())
			report.Cells = append(report.Cells, nil)
			continue
		}
		logging.Debug("parsed cell", "index", i, "cell", cell.String())
		report.Cells = append(report.Cells, cell)
	}
	return report, nil
}

package pager

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/litescope/litescope/core/errors"
)

// Compression identifies the outer encoding of a database file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionXZ
)

// String returns the conventional short name for the compression format.
func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionXZ:
		return "xz"
	}
	return "none"
}

// Magic byte prefixes for supported compression formats.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// DetectCompression sniffs the leading bytes of a file. Anything that is not
// a recognized compressed format is treated as a plain database image.
func DetectCompression(prefix []byte) Compression {
	switch {
	case bytes.HasPrefix(prefix, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(prefix, xzMagic):
		return CompressionXZ
	}
	return CompressionNone
}

// File is an open database image: a cached reader plus the handle that backs
// it. Compressed inputs are decompressed fully into memory on open, so the
// reader always sees the database bytes.
type File struct {
	*Reader
	path        string
	file        *os.File // nil when the image was decompressed into memory
	compression Compression
}

// Open opens a database file, transparently decompressing gzip or xz input.
// cacheBlocks sizes the block cache; a non-positive value selects the
// default.
func Open(path string, cacheBlocks int) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}

	prefix := make([]byte, len(xzMagic))
	n, err := f.ReadAt(prefix, 0)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, errors.NewIO("read", path, err)
	}

	compression := DetectCompression(prefix[:n])
	if compression == CompressionNone {
		st, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, errors.NewIO("stat", path, err)
		}
		return &File{
			Reader:      NewReader(f, st.Size(), cacheBlocks),
			path:        path,
			file:        f,
			compression: compression,
		}, nil
	}

	defer f.Close()

	var src io.Reader
	switch compression {
	case CompressionGzip:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.NewIO("decompress", path, err)
		}
		defer gzr.Close()
		src = gzr
	case CompressionXZ:
		xzr, err := xz.NewReader(f)
		if err != nil {
			return nil, errors.NewIO("decompress", path, err)
		}
		src = xzr // xz reader doesn't need closing
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.NewIO("decompress", path, err)
	}

	return &File{
		Reader:      NewReader(bytes.NewReader(data), int64(len(data)), cacheBlocks),
		path:        path,
		compression: compression,
	}, nil
}

// Close releases the underlying file handle, if any.
func (f *File) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// Path returns the path the file was opened from.
func (f *File) Path() string {
	return f.path
}

// Compression reports the outer encoding the file arrived in.
func (f *File) Compression() Compression {
	return f.compression
}

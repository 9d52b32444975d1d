package pager

import (
	"io"

	"github.com/litescope/litescope/core/cache"
)

// BlockSize is the granularity of cached reads. It matches the most common
// database page size, so a page normally costs one block fetch.
const BlockSize = 4096

// Reader provides random access to a database image through an LRU block
// cache. It implements io.ReaderAt.
type Reader struct {
	src   io.ReaderAt
	size  int64
	cache *cache.BlockCache
}

// NewReader wraps src, which holds size bytes, with a cache of at most
// cacheBlocks blocks. A non-positive cacheBlocks selects the default.
func NewReader(src io.ReaderAt, size int64, cacheBlocks int) *Reader {
	if cacheBlocks <= 0 {
		cacheBlocks = cache.DefaultConfig().MaxSize
	}
	return &Reader{
		src:   src,
		size:  size,
		cache: cache.NewBlockCache(cacheBlocks),
	}
}

// Size returns the total number of bytes available.
func (r *Reader) Size() int64 {
	return r.size
}

// CacheStats returns block cache statistics.
func (r *Reader) CacheStats() cache.Stats {
	return r.cache.Stats()
}

// ReadAt implements io.ReaderAt. Reads that run past the end of the image
// return io.EOF along with the bytes that were available.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, io.EOF
	}

	n := 0
	for n < len(p) {
		if off >= r.size {
			return n, io.EOF
		}

		blk, err := r.block(off / BlockSize)
		if err != nil {
			return n, err
		}

		c := copy(p[n:], blk[off%BlockSize:])
		n += c
		off += int64(c)
	}
	return n, nil
}

// block returns the cached block with the given index, fetching it from the
// source on a miss. The final block may be shorter than BlockSize.
func (r *Reader) block(idx int64) ([]byte, error) {
	if blk, ok := r.cache.Get(idx); ok {
		return blk, nil
	}

	start := idx * BlockSize
	length := int64(BlockSize)
	if start+length > r.size {
		length = r.size - start
	}

	buf := make([]byte, length)
	if n, err := r.src.ReadAt(buf, start); err != nil && !(err == io.EOF && int64(n) == length) {
		return nil, err
	}

	r.cache.Put(idx, buf)
	return buf, nil
}

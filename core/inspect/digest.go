package inspect

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/litescope/litescope/core/errors"
)

// Digest returns the lowercase hex BLAKE3-256 digest of the file's stored
// bytes. Compression is not undone first: two files holding the same
// database but compressed differently digest differently.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.NewIO("open", path, err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.NewIO("hash", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestBytes returns the lowercase hex BLAKE3-256 digest of data.
func DigestBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

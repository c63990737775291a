// Package hasher computes short, non-cryptographic content hashes used to
// detect a render output changing on disk without re-decoding it.
package hasher

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// ContentHashFile streams path through xxHash64 and returns its hex digest
// truncated to hexLen characters (0 keeps the full 16).
func ContentHashFile(path string, hexLen int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	full := hex.EncodeToString(uint64ToBytes(h.Sum64()))
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen], nil
	}
	return full, nil
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
	return b
}

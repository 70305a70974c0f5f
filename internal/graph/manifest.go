package graph

import (
	"encoding/hex"
	"path/filepath"
	"slices"

	"golang.org/x/crypto/blake2b"
)

// ManifestDigest returns a BLAKE2b-256 digest of the sorted artifact paths.
// It is independent of input order and of the path separator.
func ManifestDigest(artifacts []string) string {
	sorted := make([]string, len(artifacts))
	for i, a := range artifacts {
		sorted[i] = filepath.ToSlash(a)
	}
	slices.Sort(sorted)

	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(nil)
	for _, a := range sorted {
		h.Write([]byte(a))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

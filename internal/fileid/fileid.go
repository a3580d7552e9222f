// Package fileid provides deterministic identifiers for chunks and case documents.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
)

const (
	chunkPrefix = "chunk:"
	casePrefix  = "case:"
)

// ChunkID returns a stable ID for a chunk. The same source, page, position and text
// always yield the same ID, so re-merging identical content does not duplicate it.
func ChunkID(source string, page, index int, text string) string {
	h := sha256.New()
	h.Write([]byte(filepath.Base(source)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(page)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(index)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return chunkPrefix + hex.EncodeToString(h.Sum(nil))[:32]
}

// CaseDocID returns the keyword index document ID for a case filename.
func CaseDocID(filename string) string {
	hash := sha256.Sum256([]byte(filepath.Base(filename)))
	return casePrefix + hex.EncodeToString(hash[:])
}

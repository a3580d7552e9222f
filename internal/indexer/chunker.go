// Package indexer builds vector stores from directories of source documents.
package indexer

import (
	"strings"

	"github.com/hyperjump/lexilaw/internal/fileid"
	"github.com/hyperjump/lexilaw/internal/models"
)

// Chunker splits text into overlapping word-based chunks.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in words).
// Non-positive sizes fall back to 512 words; overlap is clamped below the size.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Chunk splits one page of source into chunks with deterministic IDs. Text shorter
// than the window is a single chunk; blank text yields no chunks.
func (c *Chunker) Chunk(source string, page int, text string) []models.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var chunks []models.Chunk
	step := c.chunkSize - c.chunkOverlap
	for i, index := 0, 0; i < len(words); i, index = i+step, index+1 {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunkText := strings.Join(words[i:end], " ")
		chunks = append(chunks, models.Chunk{
			ID:   fileid.ChunkID(source, page, index, chunkText),
			Text: chunkText,
			Metadata: models.ChunkMetadata{
				Source:     source,
				Page:       page,
				ChunkIndex: index,
			},
		})
		if end >= len(words) {
			break
		}
	}
	return chunks
}

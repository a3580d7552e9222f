// Package models defines core data structures for documents, chunks, cases and chat exchanges.
package models

// Document is a source file with its extracted page texts, in page order.
type Document struct {
	Path  string   `json:"path"`
	Name  string   `json:"name"`
	Pages []string `json:"pages"`
}

// Chunk is a contiguous span of a document's text, the atomic retrievable item of a store.
type Chunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata records where a chunk came from.
type ChunkMetadata struct {
	Source     string `json:"source"`
	Page       int    `json:"page,omitempty"` // 1-based; 0 when the chunk spans the whole document
	ChunkIndex int    `json:"chunk_index"`
}

package domain

import "time"

// DefaultSection is the section assigned to chunks when a document
// carries no finer structure.
const DefaultSection = "main"

// DefaultTitle is used when an upload arrives without a title.
const DefaultTitle = "Untitled Document"

// TextInputSource is the source identifier for raw text uploads.
const TextInputSource = "text_input"

// Document represents an uploaded document with its extracted text.
// It is immutable once chunked and owns its chunks.
type Document struct {
	// ID is the unique identifier for the document.
	// Uploads use the source identifier, so re-uploading a file replaces it.
	ID string

	// Title is the human-readable title.
	Title string

	// Source identifies where the text came from (file name or "text_input").
	Source string

	// Content is the full text after extraction and whitespace normalisation.
	Content string

	// MIMEType is the detected content type of the upload.
	MIMEType string

	// ChunkCount is the number of chunks produced from Content.
	ChunkCount int

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Chunk represents a retrievable segment of a document.
// CharEnd - CharStart always equals the rune length of Content.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Section names the part of the document the chunk came from.
	Section string

	// Content is the text content of this chunk.
	Content string

	// CharStart is the rune offset of the first character in the document.
	CharStart int

	// CharEnd is the rune offset one past the last character.
	CharEnd int

	// Source and Title are copied from the parent document so a chunk
	// returned by the vector index is self-describing.
	Source string
	Title  string
}

// Metadata returns the payload persisted alongside the chunk vector.
func (c Chunk) Metadata() map[string]any {
	return map[string]any{
		"source":      c.Source,
		"title":       c.Title,
		"section":     c.Section,
		"position":    c.Position,
		"document_id": c.DocumentID,
		"char_start":  c.CharStart,
		"char_end":    c.CharEnd,
		"content":     c.Content,
	}
}

// RawDocument is an upload before text extraction.
type RawDocument struct {
	// Name is the file name, or empty for raw text.
	Name string

	// MIMEType is the declared or detected content type.
	MIMEType string

	// Title is the caller-supplied title, if any.
	Title string

	// Content is the raw bytes.
	Content []byte
}

// UploadResult reports the outcome of ingesting one document.
type UploadResult struct {
	Message       string `json:"message"`
	DocumentID    string `json:"document_id"`
	ChunksCreated int    `json:"chunks_created"`
}

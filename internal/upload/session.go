// Package upload implements the server side of the chunked upload protocol:
// an init call opens a session, chunks are written to a staging directory and
// a complete call assembles them in index order.
package upload

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("upload session not found")
	ErrChunkOutOfRange = errors.New("chunk index out of range")
	ErrChunkSize       = errors.New("chunk has unexpected size")
	ErrIncomplete      = errors.New("upload is missing chunks")
	ErrTooLarge        = errors.New("file exceeds maximum upload size")
	ErrSizeMismatch    = errors.New("assembled size does not match declared size")
	ErrInvalidRequest  = errors.New("invalid upload request")
)

// Session tracks one in-progress chunked upload.
type Session struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	ChunkSize   int64     `json:"chunk_size"`
	TotalChunks int       `json:"total_chunks"`
	Received    []bool    `json:"received"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExpectedChunkSize returns the byte length chunk index must have.
func (s *Session) ExpectedChunkSize(index int) int64 {
	if index == s.TotalChunks-1 {
		return s.FileSize - int64(index)*s.ChunkSize
	}
	return s.ChunkSize
}

func (s *Session) ReceivedCount() int {
	n := 0
	for _, ok := range s.Received {
		if ok {
			n++
		}
	}
	return n
}

// Missing returns the indexes that have not been uploaded yet.
func (s *Session) Missing() []int {
	var out []int
	for i, ok := range s.Received {
		if !ok {
			out = append(out, i)
		}
	}
	return out
}

// SessionStore persists sessions between the init, chunk and complete calls.
type SessionStore interface {
	Create(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	MarkReceived(ctx context.Context, id string, index int) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// TotalChunks is ceil(size/chunkSize); an empty file still takes one chunk.
func TotalChunks(size, chunkSize int64) int {
	if size <= 0 || chunkSize <= 0 {
		return 1
	}
	return int((size + chunkSize - 1) / chunkSize)
}

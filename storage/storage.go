// Package storage holds ingested PDF files. The API server keeps only the
// blob key on the article row; bytes live here.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// BlobStore is the narrow surface the PDF ingest path needs.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PDFKey is the canonical object key for an article's uploaded PDF.
func PDFKey(userID, articleID uuid.UUID) string {
	return fmt.Sprintf("pdfs/%s/%s.pdf", userID, articleID)
}

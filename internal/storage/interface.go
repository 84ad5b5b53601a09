package storage

import (
	"context"
	"io"
)

// Storage holds uploaded import spreadsheets.
type Storage interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Upload(ctx context.Context, key string, data io.ReadSeeker, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ImportKey is the object key of an uploaded import spreadsheet.
func ImportKey(importID string) string {
	return "imports/" + importID + ".xlsx"
}

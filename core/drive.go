package core

import (
	"context"
	"io"
)

// FileArchiver is any service that can archive a document and hand back a
// stable file ID.
type FileArchiver interface {
	Archive(ctx context.Context, name, contentType string, r io.Reader) (fileID string, err error)
}

package submission

import (
	"context"
	"mime/multipart"

	"webformular/internal/domain/upload"
)

// Uploader stores optional attachments.
type Uploader interface {
	Store(ctx context.Context, fileHeader *multipart.FileHeader) (*upload.StoredFile, error)
	Remove(path string) error
}

// TokenService issues and checks single-use anti-forgery tokens.
type TokenService interface {
	Issue(formID string) (string, error)
	Verify(ctx context.Context, token, formID string) bool
}

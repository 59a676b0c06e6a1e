package repository

import (
	"context"
	"io"
)

type ImageStore interface {
	Upload(ctx context.Context, file io.Reader, contentType, folder string) (string, error)
	Delete(ctx context.Context, url string) error
}

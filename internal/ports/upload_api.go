package ports

import (
	"context"
	"io"

	"github.com/recallo/recallo-cli/internal/domain"
)

type UploadAPI interface {
	Upload(ctx context.Context, owner domain.OwnerID, name string, content io.Reader) (domain.UploadResult, error)
}

package keys

import (
	"context"

	"formrelay/internal/domain"
)

type ApiKeyRepository interface {
	Create(ctx context.Context, k *domain.ApiKey) error
	GetByID(ctx context.Context, id int64) (*domain.ApiKey, error)
	List(ctx context.Context) ([]domain.ApiKey, error)
	Update(ctx context.Context, k *domain.ApiKey) error
	Delete(ctx context.Context, id int64) error
}

// SubmissionStore is the slice of the submission repository the key
// cascade needs: collect file rows, then drop everything the key owns.
type SubmissionStore interface {
	ListFilesByApiKey(ctx context.Context, apiKeyID int64) ([]domain.FileUpload, error)
	DeleteByApiKey(ctx context.Context, apiKeyID int64) error
}

// FileRemover deletes stored bytes during the cascade.
type FileRemover interface {
	Remove(path string)
}

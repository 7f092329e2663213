package ingest

import (
	"context"
	"io"

	"formrelay/internal/domain"
)

// ApiKeyRepository resolves secrets and mutates the usage counter.
type ApiKeyRepository interface {
	GetBySecret(ctx context.Context, secret string) (*domain.ApiKey, error)
	IncrementUsage(ctx context.Context, id int64) error
}

// SubmissionRepository persists submissions and their email status.
type SubmissionRepository interface {
	Create(ctx context.Context, s *domain.Submission) error
	UpdateEmailStatus(ctx context.Context, id int64, sent bool, emailError string) error
}

// FileStager validates and stages one uploaded file, and discards staged
// files when a request fails after staging.
type FileStager interface {
	Stage(apiKeyID int64, filename, contentType string, r io.Reader) (*domain.FileUpload, error)
	Discard(files []domain.FileUpload)
}

// Notifier performs the single synchronous delivery attempt.
type Notifier interface {
	Deliver(ctx context.Context, key *domain.ApiKey, sub *domain.Submission) error
}

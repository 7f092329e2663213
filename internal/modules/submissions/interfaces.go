package submissions

import (
	"context"
	"time"

	"formrelay/internal/domain"
)

type SubmissionRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Submission, error)
	List(ctx context.Context, apiKeyID int64, page, perPage int) ([]domain.Submission, int64, error)
	Delete(ctx context.Context, id int64) error
	GetFileByID(ctx context.Context, id int64) (*domain.FileUpload, error)
	ListFilesBySubmission(ctx context.Context, submissionID int64) ([]domain.FileUpload, error)
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountFiles(ctx context.Context) (int64, error)
}

type ApiKeyCounter interface {
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type FileRemover interface {
	Remove(path string)
}

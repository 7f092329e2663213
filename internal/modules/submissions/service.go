package submissions

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"formrelay/internal/domain"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type Service struct {
	subs  SubmissionRepository
	keys  ApiKeyCounter
	files FileRemover
}

func NewService(subs SubmissionRepository, keys ApiKeyCounter, files FileRemover) *Service {
	return &Service{subs: subs, keys: keys, files: files}
}

// List pages through submissions newest-first, optionally scoped to one key.
func (s *Service) List(ctx context.Context, apiKeyID int64, page, perPage int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	subs, total, err := s.subs.List(ctx, apiKeyID, page, perPage)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return &ListResult{
		Submissions: subs,
		Total:       total,
		Page:        page,
		PerPage:     perPage,
		Pages:       pages,
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Submission, error) {
	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// Delete removes the submission, its file rows and their on-disk bytes.
func (s *Service) Delete(ctx context.Context, id int64) error {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	for _, f := range sub.Files {
		s.files.Remove(f.FilePath)
	}
	return s.subs.Delete(ctx, sub.ID)
}

// GetFile returns the metadata needed to stream a download.
func (s *Service) GetFile(ctx context.Context, id int64) (*domain.FileUpload, error) {
	f, err := s.subs.GetFileByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var err error

	if stats.TotalApiKeys, err = s.keys.Count(ctx); err != nil {
		return nil, err
	}
	if stats.ActiveApiKeys, err = s.keys.CountActive(ctx); err != nil {
		return nil, err
	}
	if stats.TotalSubmissions, err = s.subs.Count(ctx); err != nil {
		return nil, err
	}
	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	if stats.RecentSubmissions, err = s.subs.CountSince(ctx, weekAgo); err != nil {
		return nil, err
	}
	if stats.TotalFiles, err = s.subs.CountFiles(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

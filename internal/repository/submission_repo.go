package repository

import (
	"context"
	"time"

	"formrelay/internal/domain"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create persists the submission row and all of its file rows in one
// transaction. Either everything commits or nothing does; staged bytes on
// disk are the caller's problem on failure.
func (r *SubmissionRepository) Create(ctx context.Context, s *domain.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		for i := range s.Files {
			s.Files[i].SubmissionID = s.ID
			if err := tx.Create(&s.Files[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateEmailStatus records the outcome of the single delivery attempt.
// It runs outside the insert transaction so a slow mail server can never
// keep the submission invisible.
func (r *SubmissionRepository) UpdateEmailStatus(ctx context.Context, id int64, sent bool, emailError string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Submission{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"email_sent":  sent,
			"email_error": emailError,
		}).Error
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id int64) (*domain.Submission, error) {
	var s domain.Submission
	if tx := r.db.WithContext(ctx).First(&s, id); tx.Error != nil {
		return nil, tx.Error
	}
	files, err := r.ListFilesBySubmission(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Files = files
	return &s, nil
}

// List returns submissions newest-first, optionally filtered by owning key.
// apiKeyID == 0 means no filter.
func (r *SubmissionRepository) List(ctx context.Context, apiKeyID int64, page, perPage int) ([]domain.Submission, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Submission{})
	if apiKeyID > 0 {
		q = q.Where("api_key_id = ?", apiKeyID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subs []domain.Submission
	tx := q.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&subs)
	if tx.Error != nil {
		return nil, 0, tx.Error
	}

	for i := range subs {
		files, err := r.ListFilesBySubmission(ctx, subs[i].ID)
		if err != nil {
			return nil, 0, err
		}
		subs[i].Files = files
	}
	return subs, total, nil
}

func (r *SubmissionRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", id).Delete(&domain.FileUpload{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Submission{}, id).Error
	})
}

// DeleteByApiKey removes every submission owned by the key together with
// the file rows, used by the key-deletion cascade.
func (r *SubmissionRepository) DeleteByApiKey(ctx context.Context, apiKeyID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&domain.Submission{}).Select("id").Where("api_key_id = ?", apiKeyID)
		if err := tx.Where("submission_id IN (?)", sub).Delete(&domain.FileUpload{}).Error; err != nil {
			return err
		}
		return tx.Where("api_key_id = ?", apiKeyID).Delete(&domain.Submission{}).Error
	})
}

func (r *SubmissionRepository) GetFileByID(ctx context.Context, id int64) (*domain.FileUpload, error) {
	var f domain.FileUpload
	if tx := r.db.WithContext(ctx).First(&f, id); tx.Error != nil {
		return nil, tx.Error
	}
	return &f, nil
}

func (r *SubmissionRepository) ListFilesBySubmission(ctx context.Context, submissionID int64) ([]domain.FileUpload, error) {
	var files []domain.FileUpload
	tx := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("id ASC").
		Find(&files)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return files, nil
}

// ListFilesByApiKey collects file rows across all of a key's submissions so
// the cascade delete can remove their on-disk bytes first.
func (r *SubmissionRepository) ListFilesByApiKey(ctx context.Context, apiKeyID int64) ([]domain.FileUpload, error) {
	var files []domain.FileUpload
	sub := r.db.Model(&domain.Submission{}).Select("id").Where("api_key_id = ?", apiKeyID)
	tx := r.db.WithContext(ctx).Where("submission_id IN (?)", sub).Find(&files)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return files, nil
}

func (r *SubmissionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	tx := r.db.WithContext(ctx).Model(&domain.Submission{}).Count(&n)
	return n, tx.Error
}

func (r *SubmissionRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	tx := r.db.WithContext(ctx).Model(&domain.Submission{}).Where("created_at >= ?", since).Count(&n)
	return n, tx.Error
}

func (r *SubmissionRepository) CountFiles(ctx context.Context) (int64, error) {
	var n int64
	tx := r.db.WithContext(ctx).Model(&domain.FileUpload{}).Count(&n)
	return n, tx.Error
}

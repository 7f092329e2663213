package repository

import (
	"context"
	"time"

	"formrelay/internal/domain"

	"gorm.io/gorm"
)

type ApiKeyRepository struct {
	db *gorm.DB
}

func NewApiKeyRepository(db *gorm.DB) *ApiKeyRepository {
	return &ApiKeyRepository{db: db}
}

func (r *ApiKeyRepository) Create(ctx context.Context, k *domain.ApiKey) error {
	return r.db.WithContext(ctx).Create(k).Error
}

// GetBySecret looks up a key by exact match on the public secret.
// Active and inactive keys are both returned; the caller decides what an
// inactive key means for the request.
func (r *ApiKeyRepository) GetBySecret(ctx context.Context, secret string) (*domain.ApiKey, error) {
	var k domain.ApiKey
	tx := r.db.WithContext(ctx).Where("key = ?", secret).First(&k)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &k, nil
}

func (r *ApiKeyRepository) GetByID(ctx context.Context, id int64) (*domain.ApiKey, error) {
	var k domain.ApiKey
	tx := r.db.WithContext(ctx).First(&k, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &k, nil
}

func (r *ApiKeyRepository) List(ctx context.Context) ([]domain.ApiKey, error) {
	var keys []domain.ApiKey
	tx := r.db.WithContext(ctx).Order("created_at DESC").Find(&keys)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return keys, nil
}

func (r *ApiKeyRepository) Update(ctx context.Context, k *domain.ApiKey) error {
	return r.db.WithContext(ctx).Save(k).Error
}

func (r *ApiKeyRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.ApiKey{}, id).Error
}

// IncrementUsage bumps usage_count in a single UPDATE statement. Concurrent
// submissions to the same key must never lose an increment, so the new value
// is computed inside the statement, not read back and rewritten.
func (r *ApiKeyRepository) IncrementUsage(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&domain.ApiKey{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + 1"),
			"last_used":   now,
		}).Error
}

func (r *ApiKeyRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	tx := r.db.WithContext(ctx).Model(&domain.ApiKey{}).Count(&n)
	return n, tx.Error
}

func (r *ApiKeyRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	tx := r.db.WithContext(ctx).Model(&domain.ApiKey{}).Where("is_active = ?", true).Count(&n)
	return n, tx.Error
}

package keys

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"formrelay/internal/domain"
)

const (
	// 48 alphanumeric chars ≈ 285 bits of entropy, comfortably above the
	// 32-byte floor the public URL segment requires.
	secretLength   = 48
	secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	createAttempts = 3
)

type Service struct {
	keys  ApiKeyRepository
	subs  SubmissionStore
	files FileRemover
}

func NewService(keys ApiKeyRepository, subs SubmissionStore, files FileRemover) *Service {
	return &Service{keys: keys, subs: subs, files: files}
}

func (s *Service) Create(ctx context.Context, req CreateKeyRequest) (*domain.ApiKey, error) {
	key := &domain.ApiKey{
		Name:           strings.TrimSpace(req.Name),
		Description:    strings.TrimSpace(req.Description),
		RecipientEmail: strings.TrimSpace(req.RecipientEmail),
		IsActive:       true,
	}

	// The unique index on the secret is the real collision guard; on the
	// off chance it fires, regenerate and retry.
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		key.Key, err = generateSecret()
		if err != nil {
			return nil, err
		}
		err = s.keys.Create(ctx, key)
		if err == nil {
			return key, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("failed to generate a unique api key: %w", err)
}

func (s *Service) List(ctx context.Context) ([]domain.ApiKey, error) {
	return s.keys.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.ApiKey, error) {
	key, err := s.keys.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return key, nil
}

// Update mutates dashboard-editable fields. The secret itself is immutable
// after creation.
func (s *Service) Update(ctx context.Context, id int64, req UpdateKeyRequest) (*domain.ApiKey, error) {
	key, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		key.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		key.Description = strings.TrimSpace(*req.Description)
	}
	if req.RecipientEmail != nil {
		key.RecipientEmail = strings.TrimSpace(*req.RecipientEmail)
	}
	if req.IsActive != nil {
		key.IsActive = *req.IsActive
	}

	if err := s.keys.Update(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Delete removes the key and everything it owns: stored file bytes first,
// then the submission and file rows, then the key row.
func (s *Service) Delete(ctx context.Context, id int64) error {
	key, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	files, err := s.subs.ListFilesByApiKey(ctx, key.ID)
	if err != nil {
		return err
	}
	for _, f := range files {
		s.files.Remove(f.FilePath)
	}

	if err := s.subs.DeleteByApiKey(ctx, key.ID); err != nil {
		return err
	}
	if err := s.keys.Delete(ctx, key.ID); err != nil {
		return err
	}

	log.Printf("api_key_deleted id=%d name=%q submissions_files=%d", key.ID, key.Name, len(files))
	return nil
}

func generateSecret() (string, error) {
	b := make([]byte, secretLength)
	max := big.NewInt(int64(len(secretAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate api key: %w", err)
		}
		b[i] = secretAlphabet[n.Int64()]
	}
	return string(b), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// SQLite reports constraint violations as plain strings.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package storage

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"formrelay/internal/domain"
)

// Policy is the per-deployment attachment policy. Extensions are stored
// lower-cased without the leading dot.
type Policy struct {
	MaxFileSize       int64
	AllowedExtensions map[string]bool
}

// Stager validates uploaded files and writes accepted ones to disk under a
// server-chosen name. Staging happens before the owning submission row
// exists; callers must Discard staged files on every failure path.
type Stager struct {
	baseDir string
	policy  Policy
}

func NewStager(baseDir string, policy Policy) *Stager {
	return &Stager{baseDir: baseDir, policy: policy}
}

// Stage checks the declared filename against the extension allowlist, then
// streams the part to uploads/<keyID>/<YYYY-MM>/<uuid>.<ext> while counting
// bytes. Multipart parts carry no size up front, so the limit is enforced
// during the copy and an over-limit write is removed again.
func (s *Stager) Stage(apiKeyID int64, filename, contentType string, r io.Reader) (*domain.FileUpload, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || !s.policy.AllowedExtensions[ext] {
		return nil, ErrFileTypeNotAllowed
	}

	now := time.Now().UTC()
	relDir := filepath.Join(fmt.Sprintf("%d", apiKeyID), now.Format("2006-01"))
	absDir := filepath.Join(s.baseDir, relDir)
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	storedName := fmt.Sprintf("%s.%s", uuid.NewString(), ext)
	absPath := filepath.Join(absDir, storedName)

	dst, err := os.Create(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(dst, io.LimitReader(r, s.policy.MaxFileSize+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if n > s.policy.MaxFileSize {
		_ = os.Remove(absPath)
		return nil, ErrFileTooLarge
	}

	return &domain.FileUpload{
		OriginalFilename: truncate(filepath.Base(filename), 255),
		StoredFilename:   storedName,
		FilePath:         absPath,
		FileSize:         n,
		MimeType:         contentType,
		CreatedAt:        now,
	}, nil
}

// Discard removes a batch of staged files after a rejected or failed
// request. Removal errors are logged, not returned: there is nothing the
// request can do about them anymore.
func (s *Stager) Discard(files []domain.FileUpload) {
	for _, f := range files {
		if err := os.Remove(f.FilePath); err != nil && !os.IsNotExist(err) {
			log.Printf("stager_discard_failed path=%s error=%q", f.FilePath, err)
		}
	}
}

// Remove deletes one stored file, used by the dashboard delete cascades.
func (s *Stager) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("stager_remove_failed path=%s error=%q", path, err)
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strings"

	"gorm.io/gorm"

	"formrelay/internal/domain"
)

const (
	// Field values are opaque strings; the ceiling only guards against
	// abuse, it is not a schema.
	maxFieldValueBytes = 10000
	maxUserAgentBytes  = 255
)

// Service is the ingestion pipeline for one public form post:
// resolve key, stage files, persist atomically, deliver email, report.
type Service struct {
	keys   ApiKeyRepository
	subs   SubmissionRepository
	stager FileStager
	mailer Notifier
}

func NewService(keys ApiKeyRepository, subs SubmissionRepository, stager FileStager, mailer Notifier) *Service {
	return &Service{keys: keys, subs: subs, stager: stager, mailer: mailer}
}

// Submit processes one inbound request. The multipart reader is consumed
// sequentially so field order and duplicate names survive exactly as sent.
// Any failure before the database commit discards every file staged for
// this request. A delivery failure after the commit is recorded on the
// submission and does not fail the request.
func (s *Service) Submit(ctx context.Context, secret, sourceIP, userAgent string, form *multipart.Reader) (*domain.Submission, error) {
	key, err := s.keys.GetBySecret(ctx, secret)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to resolve api key: %w", err)
	}
	if !key.IsActive {
		return nil, ErrKeyInactive
	}

	fields, staged, err := s.readForm(key.ID, form)
	if err != nil {
		s.stager.Discard(staged)
		return nil, err
	}
	if len(fields) == 0 && len(staged) == 0 {
		return nil, ErrEmptySubmission
	}

	sub := &domain.Submission{
		ApiKeyID:  key.ID,
		Fields:    fields,
		IPAddress: sourceIP,
		UserAgent: truncate(userAgent, maxUserAgentBytes),
		Files:     staged,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		s.stager.Discard(staged)
		return nil, fmt.Errorf("failed to persist submission: %w", err)
	}

	// The submission exists from here on, whatever the mail server does.
	// A client disconnect must not cut delivery, the status write or the
	// usage increment short, so the remaining steps run detached from the
	// request's cancellation.
	ctx = context.WithoutCancel(ctx)
	if err := s.mailer.Deliver(ctx, key, sub); err != nil {
		log.Printf("email_delivery_failed submission_id=%d api_key_id=%d error=%q", sub.ID, key.ID, err)
		sub.EmailSent = false
		sub.EmailError = err.Error()
	} else {
		sub.EmailSent = true
		sub.EmailError = ""
	}
	if err := s.subs.UpdateEmailStatus(ctx, sub.ID, sub.EmailSent, sub.EmailError); err != nil {
		log.Printf("email_status_update_failed submission_id=%d error=%q", sub.ID, err)
	}

	if err := s.keys.IncrementUsage(ctx, key.ID); err != nil {
		log.Printf("usage_increment_failed api_key_id=%d error=%q", key.ID, err)
	}

	return sub, nil
}

// readForm walks the multipart body part by part. Non-file parts become
// ordered fields, file parts are staged as they are encountered. On error
// the caller discards whatever was staged so far.
func (s *Service) readForm(apiKeyID int64, form *multipart.Reader) (domain.FieldList, []domain.FileUpload, error) {
	var fields domain.FieldList
	var staged []domain.FileUpload

	for {
		part, err := form.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fields, staged, ErrMalformedForm
		}

		if part.FileName() == "" {
			value, err := readFieldValue(part)
			part.Close()
			if err != nil {
				return fields, staged, ErrMalformedForm
			}
			fields = append(fields, domain.Field{Name: part.FormName(), Value: value})
			continue
		}

		f, err := s.stager.Stage(apiKeyID, part.FileName(), part.Header.Get("Content-Type"), part)
		part.Close()
		if err != nil {
			return fields, staged, &FileRejectedError{Filename: part.FileName(), Err: err}
		}
		staged = append(staged, *f)
	}

	return fields, staged, nil
}

func readFieldValue(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxFieldValueBytes))
	if err != nil {
		return "", err
	}
	// Drain anything over the ceiling so the next part parses cleanly.
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	value := strings.ReplaceAll(string(data), "\x00", "")
	return strings.TrimSpace(value), nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

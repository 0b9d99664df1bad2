package core

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/qrprint/kiosk/internal/db"
)

const tokenBytes = 16

// Service owns the job lifecycle: it is the only place tokens are minted
// and the only authorizer of paid/printed transitions. Everything else
// talks to jobs through the token it returns.
type Service struct {
	ttl time.Duration
}

func NewService(tokenTTL time.Duration) *Service {
	return &Service{ttl: tokenTTL}
}

// GenerateToken returns a fresh 128-bit URL-safe job token.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CreateJob persists a new job for an already-stored upload and returns
// its token. On failure nothing is recorded and the caller is expected
// to remove the stored file itself.
func (s *Service) CreateJob(ctx context.Context, filename, storedPath, owner string) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	job := &db.Job{
		Token:      token,
		Filename:   filename,
		Filepath:   storedPath,
		Owner:      owner,
		UploadedAt: now,
		ExpiresAt:  now.Add(s.ttl),
	}

	if err := db.Jobs.CreateJob(ctx, job); err != nil {
		return "", fmt.Errorf("failed to persist job: %w", err)
	}
	return token, nil
}

// MarkPaid transitions a job to paid. Calling it again for an
// already-paid job is a no-op.
func (s *Service) MarkPaid(ctx context.Context, token string) error {
	found, err := db.Jobs.SetPaid(ctx, token)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// ResolveForPrint authorizes handing the stored file path to a print
// actor. Checks run in a fixed order so the most fundamental failure
// wins: unknown token, then expiry, then payment, then already-printed.
// It does not mark the job printed; that confirmation is a separate step
// so a worker that fails at the physical printer does not lose the job.
func (s *Service) ResolveForPrint(ctx context.Context, token string) (string, error) {
	job, err := db.Jobs.GetJobByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	if time.Now().After(job.ExpiresAt) {
		return "", ErrExpired
	}
	if !job.Paid {
		return "", ErrPaymentRequired
	}
	if job.Printed {
		return "", ErrAlreadyPrinted
	}

	return job.Filepath, nil
}

// MarkPrinted records that the document physically left the printer.
// Payment and expiry are not re-checked: the scanner already has custody
// of the output, so the mark is unconditional. Idempotent.
func (s *Service) MarkPrinted(ctx context.Context, token string) error {
	found, err := db.Jobs.SetPrinted(ctx, token)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

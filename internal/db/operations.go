package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
)

var (
	// ErrDuplicateToken is returned when a job insert collides on the
	// token column. Token generation makes this statistically impossible;
	// the store still refuses the write rather than clobbering a job.
	ErrDuplicateToken = errors.New("duplicate job token")

	ErrDuplicateUsername = errors.New("duplicate username")
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

type JobOperations struct{}

func (o *JobOperations) CreateJob(ctx context.Context, j *Job) error {
	result, err := GetDB().ExecContext(ctx, InsertJob,
		j.Token, j.Filename, j.Filepath, j.Owner, j.UploadedAt, j.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateToken
		}
		return fmt.Errorf("failed to create job: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get job id: %w", err)
	}
	j.ID = id
	return nil
}

func (o *JobOperations) GetJobByToken(ctx context.Context, token string) (*Job, error) {
	j := &Job{}
	err := GetDB().QueryRowContext(ctx, GetJobByToken, token).Scan(
		&j.ID, &j.Token, &j.Filename, &j.Filepath, &j.Owner,
		&j.UploadedAt, &j.Paid, &j.Printed, &j.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

func (o *JobOperations) ListJobsByOwner(ctx context.Context, owner string) ([]*Job, error) {
	rows, err := GetDB().QueryContext(ctx, ListJobsByOwner, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs by owner: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (o *JobOperations) ListJobs(ctx context.Context) ([]*Job, error) {
	rows, err := GetDB().QueryContext(ctx, ListAllJobs)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// SetPaid flips the paid flag. The transition is monotonic: setting an
// already-paid job again is a no-op, not an error. The returned bool
// reports whether the token existed.
func (o *JobOperations) SetPaid(ctx context.Context, token string) (bool, error) {
	result, err := GetDB().ExecContext(ctx, SetJobPaid, token)
	if err != nil {
		return false, fmt.Errorf("failed to set job paid: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// SetPrinted flips the printed flag, with the same monotonic semantics
// as SetPaid.
func (o *JobOperations) SetPrinted(ctx context.Context, token string) (bool, error) {
	result, err := GetDB().ExecContext(ctx, SetJobPrinted, token)
	if err != nil {
		return false, fmt.Errorf("failed to set job printed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		j := &Job{}
		if err := rows.Scan(
			&j.ID, &j.Token, &j.Filename, &j.Filepath, &j.Owner,
			&j.UploadedAt, &j.Paid, &j.Printed, &j.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

type AccountOperations struct{}

func (o *AccountOperations) CreateAccount(ctx context.Context, a *Account) error {
	result, err := GetDB().ExecContext(ctx, InsertAccount,
		a.Username, a.PasswordHash, a.IsAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get account id: %w", err)
	}
	a.ID = id
	return nil
}

func (o *AccountOperations) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	a := &Account{}
	err := GetDB().QueryRowContext(ctx, GetAccountByUsername, username).Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.IsAdmin, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

var (
	Jobs     = &JobOperations{}
	Accounts = &AccountOperations{}
)

package core

import "errors"

var (
	// ErrNotFound means the token does not correspond to any job.
	ErrNotFound = errors.New("job not found")

	// ErrExpired means the job's expiry passed before it was resolved
	// for printing. The stored paid/printed flags are untouched.
	ErrExpired = errors.New("job token expired")

	// ErrPaymentRequired means the job exists but has not been paid.
	ErrPaymentRequired = errors.New("job not paid")

	// ErrAlreadyPrinted means the job already went through the printer.
	ErrAlreadyPrinted = errors.New("job already printed")
)

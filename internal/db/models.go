package db

import (
	"time"
)

// Job is one uploaded document plus its payment/print/expiry state. The
// token is the only handle handed out to callers; paid and printed only
// ever transition false to true.
type Job struct {
	ID         int64     `json:"id"`
	Token      string    `json:"token"`
	Filename   string    `json:"filename"`
	Filepath   string    `json:"filepath"`
	Owner      string    `json:"owner,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
	Paid       bool      `json:"paid"`
	Printed    bool      `json:"printed"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

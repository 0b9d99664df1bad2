package db

const (
	InsertJob = `
		INSERT INTO jobs (token, filename, filepath, owner, uploaded_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	GetJobByToken = `
		SELECT id, token, filename, filepath, owner, uploaded_at, paid, printed, expires_at
		FROM jobs WHERE token = ?
	`

	ListJobsByOwner = `
		SELECT id, token, filename, filepath, owner, uploaded_at, paid, printed, expires_at
		FROM jobs WHERE owner = ? ORDER BY uploaded_at DESC, id DESC
	`

	ListAllJobs = `
		SELECT id, token, filename, filepath, owner, uploaded_at, paid, printed, expires_at
		FROM jobs ORDER BY uploaded_at DESC, id DESC
	`

	SetJobPaid = `UPDATE jobs SET paid = 1 WHERE token = ?`

	SetJobPrinted = `UPDATE jobs SET printed = 1 WHERE token = ?`
)

const (
	InsertAccount = `
		INSERT INTO accounts (username, password_hash, is_admin)
		VALUES (?, ?, ?)
	`

	GetAccountByUsername = `
		SELECT id, username, password_hash, is_admin, created_at
		FROM accounts WHERE username = ?
	`
)

package domain

import "time"

// User represents an account. The id is assigned by the database at
// registration and never changes. Emails are trimmed of surrounding
// whitespace before storage and compared byte-for-byte (case-sensitive).
type User struct {
	ID           int64
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Package models defines server-side data models persisted in the database.
package models

import "time"

// Principal is an authenticated user. Subject is the login name and is
// unique; ID is the tenant key referenced by every tenant-scoped row.
type Principal struct {
	ID           string
	Subject      string
	PasswordHash string
	CreatedAt    time.Time
}

package models

import "time"

type Task struct {
	ID          string
	TenantID    string
	Title       string
	Description string
	DateTime    *time.Time
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

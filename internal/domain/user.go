package domain

import "time"

// User is an admin account for the dashboard. Dashboard users manage API
// keys and read submissions; they never participate in public ingestion.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:120"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func (User) TableName() string { return "users" }

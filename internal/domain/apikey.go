package domain

import "time"

// ApiKey binds a public endpoint secret to a recipient mailbox.
// The Key value is the URL segment third parties post to; it is generated
// server-side, globally unique and never changes after creation.
type ApiKey struct {
	ID             int64      `json:"id"`
	Key            string     `json:"key" gorm:"uniqueIndex;size:64"`
	Name           string     `json:"name" gorm:"size:100"`
	Description    string     `json:"description"`
	RecipientEmail string     `json:"recipient_email" gorm:"size:120"`
	IsActive       bool       `json:"is_active" gorm:"default:true"`
	UsageCount     int64      `json:"usage_count" gorm:"default:0"`
	CreatedAt      time.Time  `json:"created_at"`
	LastUsed       *time.Time `json:"last_used,omitempty"`
}

func (ApiKey) TableName() string { return "api_keys" }

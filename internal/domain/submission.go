package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Field is one submitted form entry. Submissions keep fields as an ordered
// list rather than a map: the wire format allows the same name twice, and
// the notification email must reproduce the original order.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FieldList is stored as a JSON array in a text column.
type FieldList []Field

func (f FieldList) Value() (driver.Value, error) {
	if len(f) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (f *FieldList) Scan(src any) error {
	if src == nil {
		*f = FieldList{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported fields column type %T", src)
	}
	if len(data) == 0 {
		*f = FieldList{}
		return nil
	}
	return json.Unmarshal(data, f)
}

func (FieldList) GormDataType() string { return "text" }

// Submission is one accepted form post. EmailSent/EmailError are written
// once after the delivery attempt and never affect the row's existence.
type Submission struct {
	ID         int64        `json:"id"`
	ApiKeyID   int64        `json:"api_key_id" gorm:"index"`
	Fields     FieldList    `json:"fields"`
	IPAddress  string       `json:"ip_address" gorm:"size:45"`
	UserAgent  string       `json:"user_agent" gorm:"size:255"`
	CreatedAt  time.Time    `json:"created_at" gorm:"index"`
	EmailSent  bool         `json:"email_sent" gorm:"default:false"`
	EmailError string       `json:"email_error,omitempty"`
	Files      []FileUpload `json:"files,omitempty" gorm:"-"`
}

func (Submission) TableName() string { return "submissions" }

// FileUpload is the metadata row for one staged attachment. FilePath is the
// server-chosen absolute location on disk; OriginalFilename is client input
// and only ever used for display and download naming.
type FileUpload struct {
	ID               int64     `json:"id"`
	SubmissionID     int64     `json:"submission_id" gorm:"index"`
	OriginalFilename string    `json:"original_filename" gorm:"size:255"`
	StoredFilename   string    `json:"stored_filename" gorm:"size:255"`
	FilePath         string    `json:"-" gorm:"size:500"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type" gorm:"size:100"`
	CreatedAt        time.Time `json:"created_at"`
}

func (FileUpload) TableName() string { return "file_uploads" }

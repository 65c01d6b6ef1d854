package submission

import (
	"database/sql"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Submission is one contact form entry.
type Submission struct {
	ID            int64          `gorm:"column:id;primaryKey;autoIncrement"`
	FirstName     string         `gorm:"column:first_name;size:255;not null"`
	LastName      string         `gorm:"column:last_name;size:255;not null"`
	Email         string         `gorm:"column:email;type:text;not null"`
	Message       string         `gorm:"column:message;type:text;not null"`
	AttachmentURL sql.NullString `gorm:"column:attachment_url;type:text"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null;index"`

	// Lowercased copies for case-insensitive filtering. SQLite's LOWER and
	// LIKE only fold ASCII, so the folding happens here.
	FirstNameFold string `gorm:"column:first_name_fold;size:255;not null;default:''"`
	LastNameFold  string `gorm:"column:last_name_fold;size:255;not null;default:''"`
	EmailFold     string `gorm:"column:email_fold;type:text;not null;default:''"`
}

// BeforeSave keeps the folded columns in step with the visible ones.
func (s *Submission) BeforeSave(_ *gorm.DB) error {
	s.FirstNameFold = fold(s.FirstName)
	s.LastNameFold = fold(s.LastName)
	s.EmailFold = fold(s.Email)
	return nil
}

func fold(v string) string {
	return strings.ToLower(v)
}

func (Submission) TableName() string { return "submissions" }

// Attachment returns the public attachment URL or "".
func (s *Submission) Attachment() string {
	if !s.AttachmentURL.Valid {
		return ""
	}
	return s.AttachmentURL.String
}

// HasAttachment returns true if a file was stored with the submission
func (s *Submission) HasAttachment() bool {
	return s.Attachment() != ""
}

package formtoken

import "time"

// Use records that a token id has been spent. The primary key on JTI is what
// makes tokens single-use.
type Use struct {
	JTI       string    `gorm:"column:jti;primaryKey;size:64"`
	FormID    string    `gorm:"column:form_id;size:64;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	UsedAt    time.Time `gorm:"column:used_at;not null"`
}

func (Use) TableName() string { return "form_token_uses" }

package model

import "time"

const (
	EmailStatusPending = "PENDING"
	EmailStatusSent    = "SENT"
	EmailStatusFailed  = "FAILED"
	EmailStatusBounced = "BOUNCED"

	EmailTypeWelcome       = "WELCOME"
	EmailTypeLowStockAlert = "LOW_STOCK_ALERT"
)

// EmailLog records every outbound delivery attempt. RecipientUserID is a
// weak reference: no foreign key, so the row survives user deletion.
type EmailLog struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	RecipientEmail  string     `gorm:"type:varchar(255);not null" json:"recipient_email"`
	RecipientUserID *int64     `gorm:"index" json:"recipient_user_id,omitempty"`
	EmailType       string     `gorm:"type:varchar(32);not null" json:"email_type"`
	Subject         string     `gorm:"type:varchar(255)" json:"subject"`
	Status          string     `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	ErrorMessage    string     `gorm:"type:text" json:"error_message,omitempty"`
	SentAt          *time.Time `json:"sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (EmailLog) TableName() string {
	return "email_logs"
}

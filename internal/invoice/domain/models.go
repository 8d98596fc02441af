// Package domain contains persistence models for billing invoices.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the invoice lifecycle state as reported by the billing provider.
type Status string

const (
	StatusDraft         Status = "DRAFT"
	StatusOpen          Status = "OPEN"
	StatusPaid          Status = "PAID"
	StatusVoid          Status = "VOID"
	StatusUncollectible Status = "UNCOLLECTIBLE"
)

// SessionRef ties an invoice to one billed charging session.
type SessionRef struct {
	TransactionID snowflake.ID `json:"transaction_id"`
	Description   string       `json:"description,omitempty"`
}

// SessionRefs is the ordered set of sessions billed on one invoice,
// stored as a JSON column.
type SessionRefs []SessionRef

// Value implements driver.Valuer.
func (s SessionRefs) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *SessionRefs) Scan(value any) error {
	switch typed := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(typed, s)
	case string:
		return json.Unmarshal([]byte(typed), s)
	default:
		return errors.New("invalid_session_refs_column")
	}
}

// Invoice is the local mirror of a provider-side invoice. Amount is in
// minor currency units.
type Invoice struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	AccountID snowflake.ID      `gorm:"not null" json:"account_id"`
	Status    Status            `gorm:"type:text;not null" json:"status"`
	LiveMode  bool              `gorm:"not null;default:false" json:"live_mode"`
	Number    string            `gorm:"type:text" json:"number"`
	Amount    int64             `gorm:"not null;default:0" json:"amount"`
	Currency  string            `gorm:"type:text;not null" json:"currency"`
	PayURL    string            `gorm:"column:pay_url;type:text" json:"pay_url,omitempty"`
	Sessions  SessionRefs       `gorm:"type:jsonb" json:"sessions"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

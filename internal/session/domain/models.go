// Package domain contains persistence models for charging sessions and
// their billing state.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/berhanpolat/ev-server/internal/invoice/domain"
)

const (
	BillingStatusBilled   = "BILLED"
	BillingStatusUnbilled = "UNBILLED"
	BillingStatusPending  = "PENDING"
	BillingStatusFailed   = "FAILED"
)

// BillingStop mirrors the invoice state onto the session that produced it.
// It is written when the session is billed and cleared (back to UNBILLED)
// only by the test-data purge path.
type BillingStop struct {
	Status        string               `json:"status"`
	InvoiceID     snowflake.ID         `json:"invoice_id,omitempty"`
	InvoiceNumber string               `json:"invoice_number,omitempty"`
	InvoiceStatus invoicedomain.Status `json:"invoice_status,omitempty"`
}

// BillingData is the billing sub-record carried by every transaction.
type BillingData struct {
	WithBillingActive bool         `json:"with_billing_active"`
	LastUpdate        time.Time    `json:"last_update"`
	Stop              *BillingStop `json:"stop,omitempty"`
}

// Value implements driver.Valuer.
func (d BillingData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *BillingData) Scan(value any) error {
	switch typed := value.(type) {
	case nil:
		*d = BillingData{}
		return nil
	case []byte:
		return json.Unmarshal(typed, d)
	case string:
		return json.Unmarshal([]byte(typed), d)
	default:
		return errors.New("invalid_billing_data_column")
	}
}

// Transaction is the persisted record of one completed charging session.
type Transaction struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	AccountID snowflake.ID `gorm:"not null" json:"account_id"`
	StationID string       `gorm:"type:text;not null" json:"station_id"`
	Billing   BillingData  `gorm:"type:jsonb" json:"billing"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "transactions" }

// ChargeSession is the in-memory view of a session handed to the
// eligibility checks. Duration and energy come from the meter readings.
type ChargeSession struct {
	TransactionID snowflake.ID
	AccountID     snowflake.ID
	StationID     string
	Duration      time.Duration
	EnergyKWh     float64
}

// Station is the charging device a session originated from.
type Station struct {
	ID     string
	SiteID string
}

// Site groups stations for organizational access control.
type Site struct {
	ID            string
	AccessControl bool
}

// Package domain contains persistence models for billing accounts.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ProviderLink maps a local account to its customer record at the external
// billing provider. An empty customer ID means the account is not linked.
type ProviderLink struct {
	CustomerID string `gorm:"column:provider_customer_id;type:text" json:"customer_id"`
	LiveMode   bool   `gorm:"column:provider_live_mode" json:"live_mode"`
}

// Empty reports whether the link carries no provider identity.
func (l ProviderLink) Empty() bool {
	return strings.TrimSpace(l.CustomerID) == ""
}

// Account is a locally stored billing account.
type Account struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Name       string       `gorm:"type:text;not null" json:"name"`
	Email      string       `gorm:"type:text;not null" json:"email"`
	Locale     string       `gorm:"type:text;not null;default:en" json:"locale"`
	Currency   string       `gorm:"type:text;not null;default:EUR" json:"currency"`
	FreeAccess bool         `gorm:"not null;default:false" json:"free_access"`
	Link       ProviderLink `gorm:"embedded" json:"provider_link"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// Billable reports whether the account can be charged at all.
func (a Account) Billable() bool { return !a.Link.Empty() }

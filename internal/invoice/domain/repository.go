package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidInvoice  = errors.New("invalid_invoice")
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrLiveInvoice     = errors.New("live_invoice")
)

// ListFilter selects invoices for one page of a periodic settlement scan.
// Results are sorted by creation time ascending so the longest-overdue
// invoices come first.
type ListFilter struct {
	Statuses []Status
	From     time.Time
	To       time.Time
	Limit    int
	Skip     int
}

// Repository provides read/write access to invoice records.
type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Invoice, error)
	ListByWindow(ctx context.Context, filter ListFilter) ([]Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
	Delete(ctx context.Context, id snowflake.ID) error

	// ListTest returns all invoices not flagged live. Used by the test-data
	// purge path only.
	ListTest(ctx context.Context) ([]Invoice, error)
}

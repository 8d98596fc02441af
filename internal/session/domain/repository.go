package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidTransaction  = errors.New("invalid_transaction")
	ErrTransactionNotFound = errors.New("transaction_not_found")
)

// Repository provides read/write access to transaction billing data.
type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Transaction, error)

	// SaveBillingStop replaces the billing stop sub-record on one
	// transaction and refreshes the billing last-update timestamp.
	SaveBillingStop(ctx context.Context, id snowflake.ID, stop BillingStop) error
}

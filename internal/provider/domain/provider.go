// Package domain defines the capability surface of an external billing
// provider. One conforming adapter exists per vendor; the orchestration
// services only ever see this interface.
package domain

import (
	"context"
	"errors"

	accountdomain "github.com/berhanpolat/ev-server/internal/account/domain"
	invoicedomain "github.com/berhanpolat/ev-server/internal/invoice/domain"
)

var (
	ErrInvalidProvider     = errors.New("invalid_provider")
	ErrProviderNotFound    = errors.New("provider_not_found")
	ErrProviderUnreachable = errors.New("provider_unreachable")
	ErrCustomerNotFound    = errors.New("customer_not_found")
)

// Provider is implemented by one adapter per billing vendor.
type Provider interface {
	// CheckConnection verifies the vendor API is reachable.
	CheckConnection(ctx context.Context) error

	// IsLinked reports whether the vendor holds a customer record for
	// the account.
	IsLinked(ctx context.Context, account accountdomain.Account) (bool, error)

	CreateCustomer(ctx context.Context, account accountdomain.Account) (accountdomain.ProviderLink, error)
	UpdateCustomer(ctx context.Context, account accountdomain.Account) (accountdomain.ProviderLink, error)

	// GetCustomer fetches the vendor-side record. Returns
	// ErrCustomerNotFound when the stored identity no longer resolves.
	GetCustomer(ctx context.Context, account accountdomain.Account) (accountdomain.ProviderLink, error)

	// RepairCustomer re-establishes a valid link without trusting the
	// stored identity. It may allocate a brand-new vendor customer.
	RepairCustomer(ctx context.Context, account accountdomain.Account) (accountdomain.ProviderLink, error)

	// SettleInvoice asks the vendor to finalize/collect the invoice and
	// returns its updated state.
	SettleInvoice(ctx context.Context, invoice invoicedomain.Invoice) (invoicedomain.Invoice, error)
}

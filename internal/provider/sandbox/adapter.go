// Package sandbox implements an in-process billing vendor for development
// and integration tests. It never issues live-mode records.
package sandbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"

	accountdomain "github.com/berhanpolat/ev-server/internal/account/domain"
	invoicedomain "github.com/berhanpolat/ev-server/internal/invoice/domain"
	providerdomain "github.com/berhanpolat/ev-server/internal/provider/domain"
)

const providerName = "sandbox"

// Factory builds sandbox adapters.
type Factory struct{}

// Provider returns the vendor name.
func (Factory) Provider() string { return providerName }

// NewAdapter constructs a sandbox adapter. Settings are ignored.
func (Factory) NewAdapter(config providerdomain.AdapterConfig) (providerdomain.Provider, error) {
	if config.LiveMode {
		return nil, providerdomain.ErrInvalidProvider
	}
	return &Adapter{customers: make(map[snowflake.ID]accountdomain.ProviderLink)}, nil
}

// Adapter keeps its customer book in memory.
type Adapter struct {
	mu        sync.Mutex
	customers map[snowflake.ID]accountdomain.ProviderLink
	seq       int
}

// CheckConnection always succeeds.
func (a *Adapter) CheckConnection(ctx context.Context) error { return nil }

// IsLinked reports whether the adapter holds a customer for the account.
func (a *Adapter) IsLinked(ctx context.Context, account accountdomain.Account) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, exists := a.customers[account.ID]
	return exists || !account.Link.Empty(), nil
}

// CreateCustomer allocates a new sandbox customer identity.
func (a *Adapter) CreateCustomer(ctx context.Context, account accountdomain.Account) (accountdomain.ProviderLink, error) {
	if account.ID == 0 {
		return accountdomain.ProviderLink{}, accountdomain.ErrInvalidAccount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocate(account.ID), nil
}

// UpdateCustomer refreshes the customer record, creating it when the
// account was linked outside this adapter instance.
func (a *Adapter) UpdateCustomer(ctx context.Context, account accountdomain.Account) (accountdomain.ProviderLink, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if link, exists := a.customers[account.ID]; exists {
		return link, nil
	}
	if !account.Link.Empty() {
		link := accountdomain.ProviderLink{CustomerID: account.Link.CustomerID, LiveMode: false}
		a.customers[account.ID] = link
		return link, nil
	}
	return accountdomain.ProviderLink{}, providerdomain.ErrCustomerNotFound
}

// GetCustomer fetches the sandbox customer record.
func (a *Adapter) GetCustomer(ctx context.Context, account accountdomain.Account) (accountdomain.ProviderLink, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	link, exists := a.customers[account.ID]
	if !exists {
		return accountdomain.ProviderLink{}, providerdomain.ErrCustomerNotFound
	}
	return link, nil
}

// RepairCustomer discards any stored identity and allocates a fresh one.
func (a *Adapter) RepairCustomer(ctx context.Context, account accountdomain.Account) (accountdomain.ProviderLink, error) {
	if account.ID == 0 {
		return accountdomain.ProviderLink{}, accountdomain.ErrInvalidAccount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocate(account.ID), nil
}

// SettleInvoice marks the invoice paid and fills in the sandbox number.
func (a *Adapter) SettleInvoice(ctx context.Context, invoice invoicedomain.Invoice) (invoicedomain.Invoice, error) {
	if invoice.ID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoice
	}
	if invoice.LiveMode {
		return invoicedomain.Invoice{}, invoicedomain.ErrLiveInvoice
	}
	settled := invoice
	settled.Status = invoicedomain.StatusPaid
	if settled.Number == "" {
		settled.Number = fmt.Sprintf("SBX-%s", invoice.ID.String())
	}
	return settled, nil
}

func (a *Adapter) allocate(accountID snowflake.ID) accountdomain.ProviderLink {
	a.seq++
	link := accountdomain.ProviderLink{
		CustomerID: fmt.Sprintf("cus_sandbox_%06d", a.seq),
		LiveMode:   false,
	}
	a.customers[accountID] = link
	return link
}

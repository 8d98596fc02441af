package sandbox

import (
	"context"
	"errors"
	"testing"

	accountdomain "github.com/berhanpolat/ev-server/internal/account/domain"
	invoicedomain "github.com/berhanpolat/ev-server/internal/invoice/domain"
	providerdomain "github.com/berhanpolat/ev-server/internal/provider/domain"
)

func newTestAdapter(t *testing.T) providerdomain.Provider {
	t.Helper()
	adapter, err := Factory{}.NewAdapter(providerdomain.AdapterConfig{})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	return adapter
}

func TestFactoryRejectsLiveMode(t *testing.T) {
	_, err := Factory{}.NewAdapter(providerdomain.AdapterConfig{LiveMode: true})
	if !errors.Is(err, providerdomain.ErrInvalidProvider) {
		t.Fatalf("expected invalid_provider, got %v", err)
	}
}

func TestCustomerLifecycle(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()
	account := accountdomain.Account{ID: 1, Name: "Test Driver"}

	if _, err := adapter.GetCustomer(ctx, account); !errors.Is(err, providerdomain.ErrCustomerNotFound) {
		t.Fatalf("expected customer_not_found before create, got %v", err)
	}

	link, err := adapter.CreateCustomer(ctx, account)
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	if link.Empty() || link.LiveMode {
		t.Fatalf("expected test-mode link, got %+v", link)
	}

	linked, err := adapter.IsLinked(ctx, account)
	if err != nil || !linked {
		t.Fatalf("expected linked, got %v %v", linked, err)
	}

	got, err := adapter.GetCustomer(ctx, account)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if got.CustomerID != link.CustomerID {
		t.Fatalf("expected %q, got %q", link.CustomerID, got.CustomerID)
	}
}

func TestRepairCustomerAllocatesFreshIdentity(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()
	account := accountdomain.Account{ID: 1}

	first, err := adapter.CreateCustomer(ctx, account)
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	repaired, err := adapter.RepairCustomer(ctx, account)
	if err != nil {
		t.Fatalf("repair customer: %v", err)
	}
	if repaired.CustomerID == first.CustomerID {
		t.Fatalf("expected repair to allocate a new identity")
	}
}

func TestSettleInvoice(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	settled, err := adapter.SettleInvoice(ctx, invoicedomain.Invoice{
		ID:       7,
		Status:   invoicedomain.StatusOpen,
		Amount:   1050,
		Currency: "EUR",
	})
	if err != nil {
		t.Fatalf("settle invoice: %v", err)
	}
	if settled.Status != invoicedomain.StatusPaid {
		t.Fatalf("expected PAID, got %s", settled.Status)
	}
	if settled.Number == "" {
		t.Fatalf("expected invoice number to be assigned")
	}
}

func TestSettleInvoiceRefusesLive(t *testing.T) {
	adapter := newTestAdapter(t)

	_, err := adapter.SettleInvoice(context.Background(), invoicedomain.Invoice{ID: 7, LiveMode: true})
	if !errors.Is(err, invoicedomain.ErrLiveInvoice) {
		t.Fatalf("expected live_invoice, got %v", err)
	}
}

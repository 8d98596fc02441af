package sync

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	accountdomain "github.com/berhanpolat/ev-server/internal/account/domain"
	invoicedomain "github.com/berhanpolat/ev-server/internal/invoice/domain"
	providerdomain "github.com/berhanpolat/ev-server/internal/provider/domain"
)

type fakeProvider struct {
	linked      bool
	isLinkedErr error
	getLink     accountdomain.ProviderLink
	getErr      error
	createLink  accountdomain.ProviderLink
	createErr   error
	updateLink  accountdomain.ProviderLink
	updateErr   error
	repairLink  accountdomain.ProviderLink
	repairErr   error

	createCalls int
	updateCalls int
	repairCalls int
}

func (p *fakeProvider) CheckConnection(ctx context.Context) error { return nil }

func (p *fakeProvider) IsLinked(ctx context.Context, account accountdomain.Account) (bool, error) {
	return p.linked, p.isLinkedErr
}

func (p *fakeProvider) CreateCustomer(ctx context.Context, account accountdomain.Account) (accountdomain.ProviderLink, error) {
	p.createCalls++
	return p.createLink, p.createErr
}

func (p *fakeProvider) UpdateCustomer(ctx context.Context, account accountdomain.Account) (accountdomain.ProviderLink, error) {
	p.updateCalls++
	return p.updateLink, p.updateErr
}

func (p *fakeProvider) GetCustomer(ctx context.Context, account accountdomain.Account) (accountdomain.ProviderLink, error) {
	return p.getLink, p.getErr
}

func (p *fakeProvider) RepairCustomer(ctx context.Context, account accountdomain.Account) (accountdomain.ProviderLink, error) {
	p.repairCalls++
	return p.repairLink, p.repairErr
}

func (p *fakeProvider) SettleInvoice(ctx context.Context, invoice invoicedomain.Invoice) (invoicedomain.Invoice, error) {
	return invoice, nil
}

type fakeAccounts struct {
	saved   map[snowflake.ID]accountdomain.ProviderLink
	saveErr error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{saved: make(map[snowflake.ID]accountdomain.ProviderLink)}
}

func (r *fakeAccounts) FindByID(ctx context.Context, id snowflake.ID) (*accountdomain.Account, error) {
	return nil, accountdomain.ErrAccountNotFound
}

func (r *fakeAccounts) SaveLink(ctx context.Context, id snowflake.ID, link accountdomain.ProviderLink) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved[id] = link
	return nil
}

func (r *fakeAccounts) ClearLink(ctx context.Context, id snowflake.ID) error {
	delete(r.saved, id)
	return nil
}

func (r *fakeAccounts) ListTestLinked(ctx context.Context) ([]accountdomain.Account, error) {
	return nil, nil
}

func newTestSynchronizer(provider providerdomain.Provider, accounts accountdomain.Repository, log *zap.Logger) *Synchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	return NewSynchronizer(Params{
		Log:      log,
		Provider: provider,
		Accounts: accounts,
	})
}

func TestSynchronizeCreatesCustomerForUnlinkedAccount(t *testing.T) {
	provider := &fakeProvider{
		linked:     false,
		createLink: accountdomain.ProviderLink{CustomerID: "cus_new"},
	}
	accounts := newFakeAccounts()
	s := newTestSynchronizer(provider, accounts, nil)

	link := s.Synchronize(context.Background(), accountdomain.Account{ID: 1}, false)
	if link == nil || link.CustomerID != "cus_new" {
		t.Fatalf("expected cus_new link, got %+v", link)
	}
	if provider.createCalls != 1 || provider.updateCalls != 0 {
		t.Fatalf("expected a single create, got create=%d update=%d", provider.createCalls, provider.updateCalls)
	}
	if accounts.saved[1].CustomerID != "cus_new" {
		t.Fatalf("expected link to be persisted, got %+v", accounts.saved)
	}
}

func TestSynchronizeUpdatesLinkedAccount(t *testing.T) {
	provider := &fakeProvider{
		linked:     true,
		updateLink: accountdomain.ProviderLink{CustomerID: "cus_existing"},
	}
	accounts := newFakeAccounts()
	s := newTestSynchronizer(provider, accounts, nil)

	link := s.Synchronize(context.Background(), accountdomain.Account{ID: 1}, false)
	if link == nil || link.CustomerID != "cus_existing" {
		t.Fatalf("expected cus_existing link, got %+v", link)
	}
	if provider.updateCalls != 1 || provider.createCalls != 0 {
		t.Fatalf("expected a single update, got create=%d update=%d", provider.createCalls, provider.updateCalls)
	}
}

func TestSynchronizeForcedVerifiesStoredIdentity(t *testing.T) {
	provider := &fakeProvider{
		getLink:    accountdomain.ProviderLink{CustomerID: "cus_ok"},
		updateLink: accountdomain.ProviderLink{CustomerID: "cus_ok"},
	}
	accounts := newFakeAccounts()
	s := newTestSynchronizer(provider, accounts, nil)

	account := accountdomain.Account{ID: 1, Link: accountdomain.ProviderLink{CustomerID: "cus_ok"}}
	link := s.Synchronize(context.Background(), account, true)
	if link == nil || link.CustomerID != "cus_ok" {
		t.Fatalf("expected cus_ok link, got %+v", link)
	}
	if provider.repairCalls != 0 {
		t.Fatalf("expected no repair for a resolvable customer")
	}
}

func TestSynchronizeForcedRepairsDanglingLink(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	provider := &fakeProvider{
		getErr:     providerdomain.ErrCustomerNotFound,
		repairLink: accountdomain.ProviderLink{CustomerID: "cus_fresh"},
	}
	accounts := newFakeAccounts()
	s := newTestSynchronizer(provider, accounts, zap.New(core))

	account := accountdomain.Account{ID: 1, Link: accountdomain.ProviderLink{CustomerID: "cus_stale"}}
	link := s.Synchronize(context.Background(), account, true)
	if link == nil || link.CustomerID != "cus_fresh" {
		t.Fatalf("expected repaired link, got %+v", link)
	}
	if provider.repairCalls != 1 {
		t.Fatalf("expected exactly one repair, got %d", provider.repairCalls)
	}
	if accounts.saved[1].CustomerID != "cus_fresh" {
		t.Fatalf("expected repaired link to be persisted")
	}

	var repairedLogged bool
	for _, entry := range logs.All() {
		if strings.Contains(entry.Message, "provider identity repaired") {
			repairedLogged = true
		}
	}
	if !repairedLogged {
		t.Fatalf("expected a repair warning to be logged")
	}
}

func TestSynchronizeReturnsNilOnProviderError(t *testing.T) {
	provider := &fakeProvider{
		linked:    false,
		createErr: errors.New("provider down"),
	}
	accounts := newFakeAccounts()
	s := newTestSynchronizer(provider, accounts, nil)

	if link := s.Synchronize(context.Background(), accountdomain.Account{ID: 1}, false); link != nil {
		t.Fatalf("expected nil link on provider error, got %+v", link)
	}
	if len(accounts.saved) != 0 {
		t.Fatalf("expected no link to be persisted")
	}
}

func TestSynchronizeReturnsNilOnPersistError(t *testing.T) {
	provider := &fakeProvider{
		linked:     false,
		createLink: accountdomain.ProviderLink{CustomerID: "cus_new"},
	}
	accounts := newFakeAccounts()
	accounts.saveErr = errors.New("database gone")
	s := newTestSynchronizer(provider, accounts, nil)

	if link := s.Synchronize(context.Background(), accountdomain.Account{ID: 1}, false); link != nil {
		t.Fatalf("expected nil link on persist error, got %+v", link)
	}
}

func TestSynchronizeRejectsZeroAccountID(t *testing.T) {
	provider := &fakeProvider{}
	accounts := newFakeAccounts()
	s := newTestSynchronizer(provider, accounts, nil)

	if link := s.Synchronize(context.Background(), accountdomain.Account{}, false); link != nil {
		t.Fatalf("expected nil link for zero account id")
	}
}

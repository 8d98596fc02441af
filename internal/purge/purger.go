// Package purge removes test-mode billing data after integration runs.
package purge

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	accountdomain "github.com/berhanpolat/ev-server/internal/account/domain"
	invoicedomain "github.com/berhanpolat/ev-server/internal/invoice/domain"
	sessiondomain "github.com/berhanpolat/ev-server/internal/session/domain"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	Invoices     invoicedomain.Repository
	Accounts     accountdomain.Repository
	Transactions sessiondomain.Repository
}

// Purger deletes non-live invoices and clears non-live provider links.
// Live records are never touched; encountering one is a wiring mistake
// that gets logged and skipped.
type Purger struct {
	log          *zap.Logger
	invoices     invoicedomain.Repository
	accounts     accountdomain.Repository
	transactions sessiondomain.Repository
}

func NewPurger(p Params) *Purger {
	return &Purger{
		log:          p.Log.Named("purge"),
		invoices:     p.Invoices,
		accounts:     p.Accounts,
		transactions: p.Transactions,
	}
}

// PurgeAll runs both sweeps. Per-item failures are logged and the sweep
// continues; the method itself only fails when a sweep cannot even list
// its records.
func (p *Purger) PurgeAll(ctx context.Context) error {
	if err := p.purgeInvoices(ctx); err != nil {
		return err
	}
	return p.purgeAccountLinks(ctx)
}

func (p *Purger) purgeInvoices(ctx context.Context) error {
	invoices, err := p.invoices.ListTest(ctx)
	if err != nil {
		p.log.Error("listing test invoices failed", zap.Error(err))
		return err
	}

	var deleted, failed int
	for _, invoice := range invoices {
		if invoice.LiveMode {
			p.log.Error("refusing to purge live invoice",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(invoicedomain.ErrLiveInvoice),
			)
			failed++
			continue
		}

		p.resetSessions(ctx, invoice)

		if err := p.invoices.Delete(ctx, invoice.ID); err != nil {
			p.log.Warn("deleting test invoice failed",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
			failed++
			continue
		}
		deleted++
	}

	p.log.Info("test invoice sweep finished",
		zap.Int("deleted", deleted),
		zap.Int("failed", failed),
	)
	return nil
}

// resetSessions clears the mirrored billing state on every session the
// invoice billed, so the sessions can be re-billed by later test runs.
func (p *Purger) resetSessions(ctx context.Context, invoice invoicedomain.Invoice) {
	for _, ref := range invoice.Sessions {
		stop := sessiondomain.BillingStop{Status: sessiondomain.BillingStatusUnbilled}
		if err := p.transactions.SaveBillingStop(ctx, ref.TransactionID, stop); err != nil {
			p.log.Warn("resetting session billing state failed",
				zap.String("invoice_id", invoice.ID.String()),
				zap.String("transaction_id", ref.TransactionID.String()),
				zap.Error(err),
			)
		}
	}
}

func (p *Purger) purgeAccountLinks(ctx context.Context) error {
	accounts, err := p.accounts.ListTestLinked(ctx)
	if err != nil {
		p.log.Error("listing test-linked accounts failed", zap.Error(err))
		return err
	}

	var cleared, failed int
	for _, account := range accounts {
		if account.Link.LiveMode {
			p.log.Error("refusing to clear live provider link",
				zap.String("account_id", account.ID.String()),
				zap.Error(accountdomain.ErrLiveAccountLink),
			)
			failed++
			continue
		}
		if err := p.accounts.ClearLink(ctx, account.ID); err != nil {
			p.log.Warn("clearing provider link failed",
				zap.String("account_id", account.ID.String()),
				zap.Error(err),
			)
			failed++
			continue
		}
		cleared++
	}

	p.log.Info("test account link sweep finished",
		zap.Int("cleared", cleared),
		zap.Int("failed", failed),
	)
	return nil
}

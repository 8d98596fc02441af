// Package settlement implements the periodic invoice settlement sweep.
package settlement

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/berhanpolat/ev-server/internal/clock"
	"github.com/berhanpolat/ev-server/internal/events"
	invoicedomain "github.com/berhanpolat/ev-server/internal/invoice/domain"
	"github.com/berhanpolat/ev-server/internal/metrics"
	providerdomain "github.com/berhanpolat/ev-server/internal/provider/domain"
	sessiondomain "github.com/berhanpolat/ev-server/internal/session/domain"
)

// InvoiceNotifier is the settlement-side view of the notification bridge.
type InvoiceNotifier interface {
	NotifyNewInvoice(ctx context.Context, invoice invoicedomain.Invoice) bool
}

// Result aggregates one settlement run. Per-item failures surface only
// here and in the logs.
type Result struct {
	Succeeded int
	Failed    int
}

type Params struct {
	fx.In

	Log          *zap.Logger
	Clock        clock.Clock
	Provider     providerdomain.Provider
	Invoices     invoicedomain.Repository
	Transactions sessiondomain.Repository
	Notifier     InvoiceNotifier         `optional:"true"`
	Outbox       *events.Outbox          `optional:"true"`
	Metrics      *metrics.BillingMetrics `optional:"true"`
	Cfg          Config
}

// Runner drives the paginated settlement sweep.
type Runner struct {
	log          *zap.Logger
	clock        clock.Clock
	provider     providerdomain.Provider
	invoices     invoicedomain.Repository
	transactions sessiondomain.Repository
	notifier     InvoiceNotifier
	outbox       *events.Outbox
	metrics      *metrics.BillingMetrics
	cfg          Config
}

func NewRunner(p Params) *Runner {
	return &Runner{
		log:          p.Log.Named("settlement.runner"),
		clock:        p.Clock,
		provider:     p.Provider,
		invoices:     p.Invoices,
		transactions: p.Transactions,
		notifier:     p.Notifier,
		outbox:       p.Outbox,
		metrics:      p.Metrics,
		cfg:          p.Cfg.withDefaults(),
	}
}

// RunPeriodicSettlement sweeps the window once and returns aggregate
// counts. Only the initial connectivity check can fail the run; every
// per-invoice error is logged, counted and swallowed.
//
// The scan pages with a moving filter: settling an invoice can push it
// out of the status set the query matches, shifting every later row one
// position left. The loop advances skip by the page size and then
// decrements it once per fetched row that left the scope, whether this
// run settled it out or the re-read found it already transitioned, so
// the next page starts at the first unprocessed row.
func (r *Runner) RunPeriodicSettlement(ctx context.Context, force bool) (Result, error) {
	ctx, span := otel.Tracer("settlement").Start(ctx, "settlement.run")
	defer span.End()

	if err := r.provider.CheckConnection(ctx); err != nil {
		r.log.Error("billing provider unreachable, aborting settlement run", zap.Error(err))
		return Result{}, fmt.Errorf("%w: %v", providerdomain.ErrProviderUnreachable, err)
	}

	started := r.clock.Now()
	window := buildWindow(started, force, r.cfg)
	mode := "periodic"
	if force {
		mode = "forced"
	}
	r.log.Info("settlement run started",
		zap.String("mode", mode),
		zap.Time("from", window.From),
		zap.Time("to", window.To),
		zap.Int("page_size", window.PageSize),
	)

	var result Result
	skip := 0
	for {
		page, err := r.invoices.ListByWindow(ctx, invoicedomain.ListFilter{
			Statuses: window.Statuses,
			From:     window.From,
			To:       window.To,
			Limit:    window.PageSize,
			Skip:     skip,
		})
		if err != nil {
			// Not an item failure: the counters track invoices, and no
			// invoice was processed here.
			r.log.Error("fetching settlement page failed", zap.Int("skip", skip), zap.Error(err))
			break
		}
		if len(page) == 0 {
			break
		}

		skip += window.PageSize
		for _, stale := range page {
			// Re-read the row: a settle earlier in this page may have
			// moved it out of scope after the page was fetched.
			invoice, err := r.invoices.FindByID(ctx, stale.ID)
			if err != nil {
				result.Failed++
				r.metrics.IncInvoiceSettlement("failed")
				r.log.Warn("re-reading invoice failed",
					zap.String("invoice_id", stale.ID.String()),
					zap.Error(err),
				)
				continue
			}
			if !r.inScope(invoice.Status) {
				// The row dropped out of the filtered result set after
				// the page was fetched, so every later row shifted one
				// position left. Without the decrement the next fetch
				// would jump over an unprocessed invoice.
				skip--
				continue
			}
			if !force && sameCalendarDay(invoice.CreatedAt, started) {
				result.Succeeded++
				r.metrics.IncInvoiceSettlement("skipped")
				continue
			}

			transitioned, err := r.settleInvoice(ctx, *invoice)
			if err != nil {
				result.Failed++
				r.metrics.IncInvoiceSettlement("failed")
				r.log.Warn("invoice settlement failed",
					zap.String("invoice_id", invoice.ID.String()),
					zap.String("account_id", invoice.AccountID.String()),
					zap.Error(err),
				)
				continue
			}
			result.Succeeded++
			r.metrics.IncInvoiceSettlement("success")
			if transitioned {
				skip--
			}
		}
	}

	r.log.Info("settlement run finished",
		zap.String("mode", mode),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	r.metrics.ObserveSettlementRun(mode, r.clock.Now().Sub(started))
	return result, nil
}

// inScope reports whether the status still matches the periodic filter.
func (r *Runner) inScope(status invoicedomain.Status) bool {
	if status == invoicedomain.StatusOpen {
		return true
	}
	return r.cfg.BillDrafts && status == invoicedomain.StatusDraft
}

// settleInvoice settles one invoice at the provider, persists the new
// state and mirrors it onto the billed sessions. It reports whether the
// persisted status left the periodic scope.
func (r *Runner) settleInvoice(ctx context.Context, invoice invoicedomain.Invoice) (bool, error) {
	settled, err := r.provider.SettleInvoice(ctx, invoice)
	if err != nil {
		return false, err
	}
	if err := r.invoices.Save(ctx, &settled); err != nil {
		return false, fmt.Errorf("persist settled invoice: %w", err)
	}

	r.mirrorSessions(ctx, settled)
	r.notify(ctx, settled)
	r.publishEvent(ctx, settled)

	r.log.Info("invoice settled",
		zap.String("invoice_id", settled.ID.String()),
		zap.String("account_id", settled.AccountID.String()),
		zap.String("status", string(settled.Status)),
	)
	return !r.inScope(settled.Status), nil
}

// mirrorSessions copies the invoice outcome onto every billed session.
// The updates touch disjoint transaction rows and run concurrently; a
// failed mirror is logged but does not fail the invoice.
func (r *Runner) mirrorSessions(ctx context.Context, invoice invoicedomain.Invoice) {
	if len(invoice.Sessions) == 0 {
		return
	}

	status := sessiondomain.BillingStatusBilled
	if invoice.Status != invoicedomain.StatusPaid && invoice.Status != invoicedomain.StatusOpen {
		status = sessiondomain.BillingStatusFailed
	}
	stop := sessiondomain.BillingStop{
		Status:        status,
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.Number,
		InvoiceStatus: invoice.Status,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, ref := range invoice.Sessions {
		ref := ref
		group.Go(func() error {
			if err := r.transactions.SaveBillingStop(groupCtx, ref.TransactionID, stop); err != nil {
				r.log.Warn("mirroring billing status failed",
					zap.String("invoice_id", invoice.ID.String()),
					zap.String("transaction_id", ref.TransactionID.String()),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	group.Wait()
}

func (r *Runner) notify(ctx context.Context, invoice invoicedomain.Invoice) {
	if r.notifier == nil {
		return
	}
	if delivered := r.notifier.NotifyNewInvoice(ctx, invoice); !delivered {
		r.log.Warn("invoice notification not delivered",
			zap.String("invoice_id", invoice.ID.String()),
		)
	}
}

func (r *Runner) publishEvent(ctx context.Context, invoice invoicedomain.Invoice) {
	if r.outbox == nil {
		return
	}
	payload := events.InvoiceSettledPayload{
		InvoiceID: invoice.ID.String(),
		AccountID: invoice.AccountID.String(),
		Number:    invoice.Number,
		Status:    string(invoice.Status),
		Amount:    invoice.Amount,
		Currency:  invoice.Currency,
	}
	err := r.outbox.Publish(ctx, events.Event{
		Type:      events.EventInvoiceSettled,
		Payload:   payload.ToMap(),
		DedupeKey: fmt.Sprintf("%s:%s:%s", events.EventInvoiceSettled, invoice.ID.String(), invoice.Status),
	})
	if err != nil {
		r.log.Warn("publishing settlement event failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
	}
}

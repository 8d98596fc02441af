// Package notification delivers new-invoice notices to account holders.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	accountdomain "github.com/berhanpolat/ev-server/internal/account/domain"
	"github.com/berhanpolat/ev-server/internal/cache"
	invoicedomain "github.com/berhanpolat/ev-server/internal/invoice/domain"
	"github.com/berhanpolat/ev-server/internal/metrics"
)

const accountCacheTTL = 5 * time.Minute

// Payload is the rendered notification content. Amount is already
// formatted for the account locale.
type Payload struct {
	InvoiceID string
	Number    string
	Amount    string
	Currency  string
	PayURL    string
	Status    invoicedomain.Status
}

// Notifier delivers one rendered notification. Implementations own the
// transport (mail, push, webhook).
type Notifier interface {
	SendNewInvoice(ctx context.Context, account accountdomain.Account, payload Payload) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Accounts accountdomain.Repository
	Notifier Notifier                `optional:"true"`
	Metrics  *metrics.BillingMetrics `optional:"true"`
}

// Bridge renders invoice notifications and dispatches them without
// blocking the settlement loop.
type Bridge struct {
	log      *zap.Logger
	accounts accountdomain.Repository
	cache    cache.Cache[snowflake.ID, accountdomain.Account]
	notifier Notifier
	metrics  *metrics.BillingMetrics
	wg       sync.WaitGroup
}

func NewBridge(p Params) *Bridge {
	notifier := p.Notifier
	if notifier == nil {
		notifier = logNotifier{log: p.Log.Named("notification.log")}
	}
	return &Bridge{
		log:      p.Log.Named("notification.bridge"),
		accounts: p.Accounts,
		cache:    cache.New[snowflake.ID, accountdomain.Account](accountCacheTTL),
		notifier: notifier,
		metrics:  p.Metrics,
	}
}

// NotifyNewInvoice renders and dispatches a notice for the invoice.
// Only OPEN and PAID invoices are meaningful to the account holder;
// other states return true without sending. Lookup and formatting
// problems are logged and reported as false, never propagated.
func (b *Bridge) NotifyNewInvoice(ctx context.Context, invoice invoicedomain.Invoice) bool {
	if invoice.Status != invoicedomain.StatusOpen && invoice.Status != invoicedomain.StatusPaid {
		return true
	}

	account, err := b.lookupAccount(ctx, invoice.AccountID)
	if err != nil {
		b.log.Warn("account lookup for notification failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("account_id", invoice.AccountID.String()),
			zap.Error(err),
		)
		b.metrics.IncNotification("failed")
		return false
	}

	amount, err := formatAmount(invoice.Amount, invoice.Currency, account.Locale)
	if err != nil {
		b.log.Warn("formatting invoice amount failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("currency", invoice.Currency),
			zap.Error(err),
		)
		b.metrics.IncNotification("failed")
		return false
	}

	payload := Payload{
		InvoiceID: invoice.ID.String(),
		Number:    invoice.Number,
		Amount:    amount,
		Currency:  invoice.Currency,
		PayURL:    invoice.PayURL,
		Status:    invoice.Status,
	}

	// Fire and forget. The dispatch outlives the settlement call, so it
	// carries its own context.
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.notifier.SendNewInvoice(context.Background(), account, payload); err != nil {
			b.log.Warn("invoice notification delivery failed",
				zap.String("invoice_id", payload.InvoiceID),
				zap.String("account_id", account.ID.String()),
				zap.Error(err),
			)
			b.metrics.IncNotification("failed")
			return
		}
		b.metrics.IncNotification("sent")
	}()
	return true
}

// Wait blocks until all in-flight dispatches finish.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

func (b *Bridge) lookupAccount(ctx context.Context, id snowflake.ID) (accountdomain.Account, error) {
	if account, ok := b.cache.Get(id); ok {
		return account, nil
	}
	account, err := b.accounts.FindByID(ctx, id)
	if err != nil {
		return accountdomain.Account{}, err
	}
	b.cache.Set(id, *account)
	return *account, nil
}

// formatAmount renders a minor-unit amount for the account locale. An
// unparseable locale falls back to English rather than failing the
// notification.
func formatAmount(minor int64, currencyCode, locale string) (string, error) {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return "", err
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	printer := message.NewPrinter(tag)
	return printer.Sprintf("%v", currency.Symbol(unit.Amount(float64(minor)/100))), nil
}

// logNotifier is the default transport: it writes the rendered notice
// to the log so local setups see exactly what would be sent.
type logNotifier struct {
	log *zap.Logger
}

func (n logNotifier) SendNewInvoice(ctx context.Context, account accountdomain.Account, payload Payload) error {
	n.log.Info("new invoice notice",
		zap.String("invoice_id", payload.InvoiceID),
		zap.String("account_email", account.Email),
		zap.String("number", payload.Number),
		zap.String("amount", payload.Amount),
		zap.String("pay_url", payload.PayURL),
	)
	return nil
}

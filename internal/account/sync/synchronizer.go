// Package sync reconciles local accounts with their customer records at
// the billing provider.
package sync

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	accountdomain "github.com/berhanpolat/ev-server/internal/account/domain"
	"github.com/berhanpolat/ev-server/internal/events"
	"github.com/berhanpolat/ev-server/internal/metrics"
	providerdomain "github.com/berhanpolat/ev-server/internal/provider/domain"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Provider providerdomain.Provider
	Accounts accountdomain.Repository
	Outbox   *events.Outbox          `optional:"true"`
	Metrics  *metrics.BillingMetrics `optional:"true"`
}

// Synchronizer pushes account data to the billing provider and persists
// the resulting customer link.
type Synchronizer struct {
	log      *zap.Logger
	provider providerdomain.Provider
	accounts accountdomain.Repository
	outbox   *events.Outbox
	metrics  *metrics.BillingMetrics
}

func NewSynchronizer(p Params) *Synchronizer {
	return &Synchronizer{
		log:      p.Log.Named("account.sync"),
		provider: p.Provider,
		accounts: p.Accounts,
		outbox:   p.Outbox,
		metrics:  p.Metrics,
	}
}

// Synchronize reconciles one account with the provider and returns the
// up-to-date link. Any failure is logged and reported as nil so callers
// degrade to an unbillable account instead of aborting.
func (s *Synchronizer) Synchronize(ctx context.Context, account accountdomain.Account, force bool) *accountdomain.ProviderLink {
	if account.ID == 0 {
		s.log.Warn("refusing to synchronize account without id")
		s.metrics.IncAccountSync("failed")
		return nil
	}

	link, result, err := s.reconcile(ctx, account, force)
	if err != nil {
		s.log.Warn("account synchronization failed",
			zap.String("account_id", account.ID.String()),
			zap.Bool("force", force),
			zap.Error(err),
		)
		s.metrics.IncAccountSync("failed")
		return nil
	}

	if err := s.accounts.SaveLink(ctx, account.ID, link); err != nil {
		s.log.Warn("persisting provider link failed",
			zap.String("account_id", account.ID.String()),
			zap.String("customer_id", link.CustomerID),
			zap.Error(err),
		)
		s.metrics.IncAccountSync("failed")
		return nil
	}

	s.log.Info("account synchronized",
		zap.String("account_id", account.ID.String()),
		zap.String("customer_id", link.CustomerID),
		zap.String("result", result),
	)
	s.metrics.IncAccountSync(result)
	s.publishEvent(ctx, account, link, result)
	return &link
}

func (s *Synchronizer) reconcile(ctx context.Context, account accountdomain.Account, force bool) (accountdomain.ProviderLink, string, error) {
	if force {
		return s.reconcileForced(ctx, account)
	}

	linked, err := s.provider.IsLinked(ctx, account)
	if err != nil {
		return accountdomain.ProviderLink{}, "", err
	}
	if !linked {
		link, err := s.provider.CreateCustomer(ctx, account)
		return link, "created", err
	}
	link, err := s.provider.UpdateCustomer(ctx, account)
	return link, "updated", err
}

// reconcileForced verifies the stored identity against the provider and
// repairs it when the customer record no longer resolves.
func (s *Synchronizer) reconcileForced(ctx context.Context, account accountdomain.Account) (accountdomain.ProviderLink, string, error) {
	existing, err := s.provider.GetCustomer(ctx, account)
	if err != nil {
		repaired, repairErr := s.provider.RepairCustomer(ctx, account)
		if repairErr != nil {
			return accountdomain.ProviderLink{}, "", repairErr
		}
		if repaired.CustomerID != account.Link.CustomerID {
			s.log.Warn("provider identity repaired",
				zap.String("account_id", account.ID.String()),
				zap.String("old_customer_id", account.Link.CustomerID),
				zap.String("new_customer_id", repaired.CustomerID),
			)
		}
		return repaired, "repaired", nil
	}

	if existing.Empty() {
		link, err := s.provider.CreateCustomer(ctx, account)
		return link, "created", err
	}
	link, err := s.provider.UpdateCustomer(ctx, account)
	return link, "updated", err
}

func (s *Synchronizer) publishEvent(ctx context.Context, account accountdomain.Account, link accountdomain.ProviderLink, result string) {
	if s.outbox == nil {
		return
	}
	eventType := events.EventAccountSynchronized
	if result == "repaired" {
		eventType = events.EventAccountLinkRepaired
	}
	payload := events.AccountSynchronizedPayload{
		AccountID:  account.ID.String(),
		CustomerID: link.CustomerID,
		Repaired:   result == "repaired",
	}
	err := s.outbox.Publish(ctx, events.Event{
		Type:      eventType,
		Payload:   payload.ToMap(),
		DedupeKey: fmt.Sprintf("%s:%s:%s", eventType, account.ID.String(), link.CustomerID),
	})
	if err != nil {
		s.log.Warn("publishing sync event failed",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
	}
}

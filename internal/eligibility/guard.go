// Package eligibility decides whether a charging session may be billed.
package eligibility

import (
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	accountdomain "github.com/berhanpolat/ev-server/internal/account/domain"
	sessiondomain "github.com/berhanpolat/ev-server/internal/session/domain"
)

var (
	ErrMissingAccount     = errors.New("missing_account")
	ErrMissingStation     = errors.New("missing_station")
	ErrMissingSite        = errors.New("missing_site")
	ErrAccountNotBillable = errors.New("account_not_billable")
)

// Config controls the eligibility decisions.
type Config struct {
	BillingEnabled   bool
	OrgAccessControl bool
	MinDuration      time.Duration
	MinEnergyKWh     float64
	SkipThresholds   bool
}

func DefaultConfig() Config {
	return Config{
		MinDuration:  time.Minute,
		MinEnergyKWh: 1,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.MinDuration <= 0 {
		c.MinDuration = defaults.MinDuration
	}
	if c.MinEnergyKWh <= 0 {
		c.MinEnergyKWh = defaults.MinEnergyKWh
	}
	return c
}

type Params struct {
	fx.In

	Log *zap.Logger
	Cfg Config
}

// Guard evaluates billing eligibility for sessions and accounts.
type Guard struct {
	log *zap.Logger
	cfg Config
}

func NewGuard(p Params) *Guard {
	return &Guard{
		log: p.Log.Named("eligibility"),
		cfg: p.Cfg.withDefaults(),
	}
}

// CheckBillable verifies a completed session can be charged: the account
// must exist, the originating station must be known and the account must
// carry a provider link.
func (g *Guard) CheckBillable(session sessiondomain.ChargeSession, account *accountdomain.Account) error {
	if account == nil || account.ID == 0 {
		return ErrMissingAccount
	}
	if session.StationID == "" {
		return ErrMissingStation
	}
	if !account.Billable() {
		g.log.Warn("account has no provider link",
			zap.String("account_id", account.ID.String()),
			zap.String("transaction_id", session.TransactionID.String()),
		)
		return ErrAccountNotBillable
	}
	return nil
}

// CheckEligibleToStart decides whether a session should be billed at all.
// A false result without error means billing is intentionally skipped;
// an error flags broken data that must not start a session.
func (g *Guard) CheckEligibleToStart(session sessiondomain.ChargeSession, account *accountdomain.Account, station *sessiondomain.Station, site *sessiondomain.Site) (bool, error) {
	if !g.cfg.BillingEnabled {
		return false, nil
	}
	if account == nil || account.ID == 0 {
		return false, ErrMissingAccount
	}
	if account.FreeAccess {
		return false, nil
	}
	if station == nil || station.ID == "" {
		return false, ErrMissingStation
	}
	if g.cfg.OrgAccessControl {
		if site == nil {
			return false, ErrMissingSite
		}
		if !site.AccessControl {
			return false, nil
		}
	}
	if !account.Billable() {
		return false, ErrAccountNotBillable
	}
	return true, nil
}

// CheckUsageThreshold reports whether the session consumed enough to be
// worth invoicing. Sessions below the thresholds are skipped with a log
// line so short test plugs do not produce noise invoices.
func (g *Guard) CheckUsageThreshold(session sessiondomain.ChargeSession) bool {
	if g.cfg.SkipThresholds {
		return true
	}
	if session.Duration < g.cfg.MinDuration || session.EnergyKWh < g.cfg.MinEnergyKWh {
		g.log.Warn("session below billing thresholds",
			zap.String("transaction_id", session.TransactionID.String()),
			zap.Duration("duration", session.Duration),
			zap.Float64("energy_kwh", session.EnergyKWh),
		)
		return false
	}
	return true
}

package eligibility

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	accountdomain "github.com/berhanpolat/ev-server/internal/account/domain"
	sessiondomain "github.com/berhanpolat/ev-server/internal/session/domain"
)

func newTestGuard(cfg Config) *Guard {
	return NewGuard(Params{Log: zap.NewNop(), Cfg: cfg})
}

func billableAccount() *accountdomain.Account {
	return &accountdomain.Account{
		ID:   1,
		Link: accountdomain.ProviderLink{CustomerID: "cus_123"},
	}
}

func TestCheckBillable(t *testing.T) {
	g := newTestGuard(Config{BillingEnabled: true})
	session := sessiondomain.ChargeSession{TransactionID: 100, AccountID: 1, StationID: "station-1"}

	if err := g.CheckBillable(session, billableAccount()); err != nil {
		t.Fatalf("expected billable, got %v", err)
	}
	if err := g.CheckBillable(session, nil); !errors.Is(err, ErrMissingAccount) {
		t.Fatalf("expected missing_account, got %v", err)
	}
	orphan := session
	orphan.StationID = ""
	if err := g.CheckBillable(orphan, billableAccount()); !errors.Is(err, ErrMissingStation) {
		t.Fatalf("expected missing_station, got %v", err)
	}
	if err := g.CheckBillable(session, &accountdomain.Account{ID: 1}); !errors.Is(err, ErrAccountNotBillable) {
		t.Fatalf("expected account_not_billable, got %v", err)
	}
}

func TestCheckEligibleToStart(t *testing.T) {
	session := sessiondomain.ChargeSession{TransactionID: 100, AccountID: 1}
	station := &sessiondomain.Station{ID: "station-1", SiteID: "site-1"}
	site := &sessiondomain.Site{ID: "site-1", AccessControl: true}

	t.Run("billing disabled", func(t *testing.T) {
		g := newTestGuard(Config{BillingEnabled: false})
		ok, err := g.CheckEligibleToStart(session, billableAccount(), station, site)
		if err != nil || ok {
			t.Fatalf("expected silent skip, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("missing account is fatal", func(t *testing.T) {
		g := newTestGuard(Config{BillingEnabled: true})
		_, err := g.CheckEligibleToStart(session, nil, station, site)
		if !errors.Is(err, ErrMissingAccount) {
			t.Fatalf("expected missing_account, got %v", err)
		}
	})

	t.Run("free access skips billing", func(t *testing.T) {
		g := newTestGuard(Config{BillingEnabled: true})
		account := billableAccount()
		account.FreeAccess = true
		ok, err := g.CheckEligibleToStart(session, account, station, site)
		if err != nil || ok {
			t.Fatalf("expected silent skip, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("missing station is fatal", func(t *testing.T) {
		g := newTestGuard(Config{BillingEnabled: true})
		_, err := g.CheckEligibleToStart(session, billableAccount(), nil, site)
		if !errors.Is(err, ErrMissingStation) {
			t.Fatalf("expected missing_station, got %v", err)
		}
	})

	t.Run("org access control requires site", func(t *testing.T) {
		g := newTestGuard(Config{BillingEnabled: true, OrgAccessControl: true})
		_, err := g.CheckEligibleToStart(session, billableAccount(), station, nil)
		if !errors.Is(err, ErrMissingSite) {
			t.Fatalf("expected missing_site, got %v", err)
		}
	})

	t.Run("site without access control skips billing", func(t *testing.T) {
		g := newTestGuard(Config{BillingEnabled: true, OrgAccessControl: true})
		open := &sessiondomain.Site{ID: "site-1", AccessControl: false}
		ok, err := g.CheckEligibleToStart(session, billableAccount(), station, open)
		if err != nil || ok {
			t.Fatalf("expected silent skip, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("unbillable account is fatal", func(t *testing.T) {
		g := newTestGuard(Config{BillingEnabled: true})
		_, err := g.CheckEligibleToStart(session, &accountdomain.Account{ID: 1}, station, site)
		if !errors.Is(err, ErrAccountNotBillable) {
			t.Fatalf("expected account_not_billable, got %v", err)
		}
	})

	t.Run("eligible", func(t *testing.T) {
		g := newTestGuard(Config{BillingEnabled: true, OrgAccessControl: true})
		ok, err := g.CheckEligibleToStart(session, billableAccount(), station, site)
		if err != nil || !ok {
			t.Fatalf("expected eligible, got ok=%v err=%v", ok, err)
		}
	})
}

func TestCheckUsageThreshold(t *testing.T) {
	g := newTestGuard(Config{BillingEnabled: true})

	short := sessiondomain.ChargeSession{TransactionID: 100, Duration: 30 * time.Second, EnergyKWh: 0.5}
	if g.CheckUsageThreshold(short) {
		t.Fatalf("expected short session to be skipped")
	}

	lowEnergy := sessiondomain.ChargeSession{TransactionID: 101, Duration: 2 * time.Minute, EnergyKWh: 0.2}
	if g.CheckUsageThreshold(lowEnergy) {
		t.Fatalf("expected low-energy session to be skipped")
	}

	ok := sessiondomain.ChargeSession{TransactionID: 102, Duration: 2 * time.Minute, EnergyKWh: 2}
	if !g.CheckUsageThreshold(ok) {
		t.Fatalf("expected session above thresholds to pass")
	}
}

func TestCheckUsageThresholdCanBeDisabled(t *testing.T) {
	g := newTestGuard(Config{BillingEnabled: true, SkipThresholds: true})

	tiny := sessiondomain.ChargeSession{TransactionID: 100, Duration: time.Second, EnergyKWh: 0}
	if !g.CheckUsageThreshold(tiny) {
		t.Fatalf("expected thresholds to be bypassed")
	}
}

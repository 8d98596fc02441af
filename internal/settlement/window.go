package settlement

import (
	"time"

	invoicedomain "github.com/berhanpolat/ev-server/internal/invoice/domain"
)

// queryWindow is the derived page query for one settlement run.
type queryWindow struct {
	From     time.Time
	To       time.Time
	Statuses []invoicedomain.Status
	PageSize int
}

// buildWindow computes the query window for a run. Forced runs scan
// today with single-item pages so the pagination compensation is easy
// to validate; normal runs scan the entire previous calendar month.
func buildWindow(now time.Time, force bool, cfg Config) queryWindow {
	now = now.UTC()

	statuses := []invoicedomain.Status{invoicedomain.StatusOpen}
	if cfg.BillDrafts {
		statuses = []invoicedomain.Status{invoicedomain.StatusDraft, invoicedomain.StatusOpen}
	}

	if force {
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return queryWindow{
			From:     start,
			To:       start.Add(24*time.Hour - time.Second),
			Statuses: statuses,
			PageSize: 1,
		}
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return queryWindow{
		From:     monthStart.AddDate(0, -1, 0),
		To:       monthStart.Add(-time.Second),
		Statuses: statuses,
		PageSize: cfg.BatchSize,
	}
}

// sameCalendarDay compares two instants in UTC.
func sameCalendarDay(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

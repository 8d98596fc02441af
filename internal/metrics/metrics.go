// Package metrics exposes Prometheus instruments for the billing engine.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	ServiceName string
	Environment string
}

type BillingMetrics struct {
	invoiceSettlements *prometheus.CounterVec
	settlementDuration *prometheus.HistogramVec
	accountSyncs       *prometheus.CounterVec
	notifications      *prometheus.CounterVec
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

func Billing() *BillingMetrics {
	return BillingWithConfig(Config{})
}

func BillingWithConfig(cfg Config) *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return billingMetrics
}

func ResetBillingMetricsForTest() {
	billingMetricsOnce = sync.Once{}
	billingMetrics = nil
}

func newBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "ev-server"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	invoiceSettlements := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "evserver_invoice_settlements_total",
			Help:        "Total invoices processed by the periodic settlement run.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // success | skipped | failed
	)

	settlementDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "evserver_settlement_run_duration_seconds",
			Help: "Wall-clock duration of a full settlement run.",
			Buckets: []float64{
				1,
				5,
				30,
				60,
				300,
				900,
				3600,
			},
			ConstLabels: constLabels,
		},
		[]string{"mode"}, // periodic | forced
	)

	accountSyncs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "evserver_account_syncs_total",
			Help:        "Total account to billing vendor synchronizations.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // created | updated | repaired | failed
	)

	notifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "evserver_invoice_notifications_total",
			Help:        "Total invoice notification dispatch attempts.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // sent | failed | skipped
	)

	registerer.MustRegister(
		invoiceSettlements,
		settlementDuration,
		accountSyncs,
		notifications,
	)

	return &BillingMetrics{
		invoiceSettlements: invoiceSettlements,
		settlementDuration: settlementDuration,
		accountSyncs:       accountSyncs,
		notifications:      notifications,
	}
}

func (m *BillingMetrics) IncInvoiceSettlement(result string) {
	if m == nil {
		return
	}
	m.invoiceSettlements.WithLabelValues(result).Inc()
}

func (m *BillingMetrics) ObserveSettlementRun(mode string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.settlementDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *BillingMetrics) IncAccountSync(result string) {
	if m == nil {
		return
	}
	m.accountSyncs.WithLabelValues(result).Inc()
}

func (m *BillingMetrics) IncNotification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

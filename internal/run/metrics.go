package run

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/systmms/kvreport/internal/report"
)

var (
	// Run metrics
	runsTotal         *prometheus.CounterVec
	itemsFetchedTotal *prometheus.CounterVec
	entriesTotal      *prometheus.CounterVec
	mailsTotal        *prometheus.CounterVec

	// Registration guard
	metricsOnce       sync.Once
	metricsRegistered bool
)

// InitMetrics initializes all Prometheus metrics.
// This should be called once at startup if a Pushgateway is configured.
func InitMetrics() {
	metricsOnce.Do(func() {
		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvreport_runs_total",
				Help: "Total number of report runs by outcome",
			},
			[]string{"outcome"},
		)

		itemsFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvreport_items_fetched_total",
				Help: "Total number of inventory items fetched by kind",
			},
			[]string{"kind"},
		)

		entriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvreport_entries_total",
				Help: "Total number of report entries by expiration range",
			},
			[]string{"range"},
		)

		mailsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvreport_mails_total",
				Help: "Total number of mail send attempts by kind and outcome",
			},
			[]string{"kind", "outcome"},
		)

		metricsRegistered = true
	})
}

// recordRun records the outcome of one report run.
// Safe to call even if metrics have not been initialized.
func recordRun(outcome string) {
	if metricsRegistered && runsTotal != nil {
		runsTotal.WithLabelValues(outcome).Inc()
	}
}

// recordItemsFetched records how many items of one kind a fetch returned.
func recordItemsFetched(kind string, count int) {
	if metricsRegistered && itemsFetchedTotal != nil {
		itemsFetchedTotal.WithLabelValues(kind).Add(float64(count))
	}
}

// recordEntries records the per-range entry counts of a built report.
func recordEntries(r *report.Report) {
	if !metricsRegistered || entriesTotal == nil {
		return
	}
	for _, e := range r.Entries {
		entriesTotal.WithLabelValues(string(e.ExpirationRange)).Inc()
	}
}

// recordMail records one report or alert send attempt.
func recordMail(kind, outcome string) {
	if metricsRegistered && mailsTotal != nil {
		mailsTotal.WithLabelValues(kind, outcome).Inc()
	}
}

// PushMetrics pushes the default registry to a Prometheus Pushgateway,
// grouped by source name so runs against different vaults do not
// overwrite each other's series.
func PushMetrics(ctx context.Context, gateway, job, source string) error {
	return push.New(gateway, job).
		Gatherer(prometheus.DefaultGatherer).
		Grouping("source", source).
		PushContext(ctx)
}

// GetRunsTotal returns the runs counter for testing.
func GetRunsTotal() *prometheus.CounterVec {
	return runsTotal
}

// GetItemsFetchedTotal returns the fetched items counter for testing.
func GetItemsFetchedTotal() *prometheus.CounterVec {
	return itemsFetchedTotal
}

// GetEntriesTotal returns the report entries counter for testing.
func GetEntriesTotal() *prometheus.CounterVec {
	return entriesTotal
}

// GetMailsTotal returns the mail sends counter for testing.
func GetMailsTotal() *prometheus.CounterVec {
	return mailsTotal
}

// IsMetricsRegistered returns whether metrics have been initialized.
func IsMetricsRegistered() bool {
	return metricsRegistered
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Archive query metrics.
var (
	// QueriesTotal counts compiled archive queries by operation and search stage kind.
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total archive queries by operation and search stage",
		},
		[]string{"operation", "search"}, // search: none / lexical / vector
	)

	// ThesaurusLoadsTotal counts thesaurus population attempts.
	ThesaurusLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thesaurus_loads_total",
			Help:      "Thesaurus population attempts",
		},
		[]string{"result"}, // "ok" / "error"
	)

	// ThesaurusEntries is the number of canonical values loaded per field.
	ThesaurusEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "thesaurus_entries",
			Help:      "Canonical thesaurus values loaded per field",
		},
		[]string{"field"},
	)
)

var archiveMetricsRegistered bool

// RegisterArchiveMetrics registers archive query metrics. Must be called once from main.
func RegisterArchiveMetrics() {
	if archiveMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(ThesaurusLoadsTotal)
	prometheus.MustRegister(ThesaurusEntries)
	archiveMetricsRegistered = true
}

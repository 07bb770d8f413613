package docstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// The reader deliberately masks corruption from callers, so the counters are
// the only place recovery and default fallbacks stay visible.
var (
	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sosedi",
		Subsystem: "docstore",
		Name:      "writes_total",
		Help:      "Successful atomic document replacements.",
	}, []string{"document"})

	backupFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sosedi",
		Subsystem: "docstore",
		Name:      "backup_failures_total",
		Help:      "Best-effort backup copies that failed before a write.",
	}, []string{"document"})

	recoveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sosedi",
		Subsystem: "docstore",
		Name:      "recoveries_total",
		Help:      "Loads that fell back to the backup generation.",
	}, []string{"document"})

	defaultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sosedi",
		Subsystem: "docstore",
		Name:      "defaults_total",
		Help:      "Loads that degraded to the collection default because both primary and backup were unusable.",
	}, []string{"document"})
)

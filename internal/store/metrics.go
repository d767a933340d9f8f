package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_commits_total",
		Help: "Ledger commits, labeled by operation and outcome",
	}, []string{"op", "result"})

	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_persist_failures_total",
		Help: "Document saves that failed",
	})
)

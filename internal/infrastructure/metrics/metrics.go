// Package metrics defines the Prometheus metrics of the clinic backend.
// Metrics are registered with the default registry on package init through
// promauto and served by the router on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinic"

// ProfileReconciliationsTotal counts reconciliation runs.
// Label:
//   - outcome: skipped, reentrant, unresolved_role, unchanged, created, reconciled, degraded, partial
var ProfileReconciliationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_reconciliations_total",
		Help:      "Total number of role-profile reconciliation runs, by outcome.",
	},
	[]string{"outcome"},
)

// ProfileOperationsTotal counts writes against the profile tables.
// Labels:
//   - kind: patient, dentist, receptionist
//   - operation: create, delete
//   - result: ok, error
var ProfileOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_operations_total",
		Help:      "Total number of profile create/delete operations issued by the synchronizer.",
	},
	[]string{"kind", "operation", "result"},
)

// ProfileDeletionsBlockedTotal counts role changes where clinical references
// kept stale profiles alive.
var ProfileDeletionsBlockedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_deletions_blocked_total",
		Help:      "Total number of role changes that left a user with multiple profiles.",
	},
)

// ProfileRepairUsersTotal counts users visited by the repair sweep.
// Label:
//   - result: corrected, degraded, failed
var ProfileRepairUsersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_repair_users_total",
		Help:      "Total number of mismatched users processed by the repair sweep, by result.",
	},
	[]string{"result"},
)

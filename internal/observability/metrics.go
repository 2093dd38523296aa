package observability

import "github.com/prometheus/client_golang/prometheus"

// Business-level counters for marketplace outcomes. HTTP traffic metrics
// live in the middleware package; these count domain events regardless of
// which endpoint triggered them.
var (
	// LeadsCreated counts newly persisted leads. Idempotent replays do not
	// increment it.
	LeadsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "medihub",
		Name:      "leads_created_total",
		Help:      "Number of leads successfully created.",
	})

	// LeadStatusTransitions counts effective status transitions, labeled by
	// the target status. Same-status no-ops are not counted.
	LeadStatusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medihub",
		Name:      "lead_status_transitions_total",
		Help:      "Number of effective lead status transitions.",
	}, []string{"to"})

	// VerificationDecisions counts admin decisions on doctor verifications,
	// labeled approved or rejected.
	VerificationDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medihub",
		Name:      "verification_decisions_total",
		Help:      "Number of admin verification decisions.",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(LeadsCreated, LeadStatusTransitions, VerificationDecisions)
}

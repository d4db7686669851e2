package metrics

import "github.com/prometheus/client_golang/prometheus"

// WorkflowMetrics records procurement workflow activity.
type WorkflowMetrics struct {
	transitions   *prometheus.CounterVec
	casConflicts  *prometheus.CounterVec
	matchOutcomes *prometheus.CounterVec
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_transitions_total",
		Help: "Workflow state transitions by entity and action.",
	}, []string{"entity", "action"})
	casConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_cas_conflicts_total",
		Help: "Lost optimistic-concurrency races by entity.",
	}, []string{"entity"})
	matchOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_three_way_match_total",
		Help: "Three-way match runs by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(transitions, casConflicts, matchOutcomes)
	return &WorkflowMetrics{
		transitions:   transitions,
		casConflicts:  casConflicts,
		matchOutcomes: matchOutcomes,
	}
}

// IncTransition counts a completed workflow transition.
func (m *WorkflowMetrics) IncTransition(entity, action string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(entity), normalizeLabel(action)).Inc()
}

// IncCASConflict counts a lost optimistic race.
func (m *WorkflowMetrics) IncCASConflict(entity string) {
	if m == nil || m.casConflicts == nil {
		return
	}
	m.casConflicts.WithLabelValues(normalizeLabel(entity)).Inc()
}

// IncMatchOutcome counts a three-way match run by outcome (passed/disputed).
func (m *WorkflowMetrics) IncMatchOutcome(outcome string) {
	if m == nil || m.matchOutcomes == nil {
		return
	}
	m.matchOutcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

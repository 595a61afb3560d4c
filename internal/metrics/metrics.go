// Package metrics provides Prometheus metrics for the pick-and-place simulator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Mission outcomes
const (
	OutcomeStarted    = "started"
	OutcomeRejected   = "rejected"
	OutcomeBadRequest = "bad_request"
)

// IK failure stages
const (
	StageValidation = "validation"
	StageRuntime    = "runtime"
)

var (
	// Counters

	// PhaseTransitionsTotal counts sequencer phase changes.
	PhaseTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pickplace_phase_transitions_total",
		Help: "Total number of sequencer phase transitions, by source and target phase.",
	}, []string{"from", "to"})

	// CyclesCompletedTotal counts full pick-and-place loops.
	CyclesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pickplace_cycles_completed_total",
		Help: "Total number of completed pick-and-place cycles.",
	})

	// MissionsTotal counts mission requests by outcome.
	MissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pickplace_missions_total",
		Help: "Total number of mission requests, by outcome (started/rejected/bad_request).",
	}, []string{"outcome"})

	// IKFailuresTotal counts unreachable targets by stage.
	IKFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pickplace_ik_failures_total",
		Help: "Total number of inverse kinematics failures, by stage (validation/runtime).",
	}, []string{"stage"})

	// Gauges

	// CurrentPhase exposes the active phase as its enum value.
	CurrentPhase = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pickplace_current_phase",
		Help: "Active sequencer phase (0=MoveHomeToStart ... 6=Error).",
	})

	// TrajectoryProgress exposes the current leg progress.
	TrajectoryProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pickplace_trajectory_progress",
		Help: "Normalized progress of the current trajectory leg (0-1).",
	})

	// Paused is 1 while the simulation clock is stopped.
	Paused = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pickplace_paused",
		Help: "1 while the simulation is paused, 0 otherwise.",
	})
)

// RecordPhaseTransition increments the transition counter.
func RecordPhaseTransition(from, to string) {
	PhaseTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordCycleComplete increments the completed cycle counter.
func RecordCycleComplete() {
	CyclesCompletedTotal.Inc()
}

// RecordMission increments the mission counter for the given outcome.
func RecordMission(outcome string) {
	MissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordIKFailure increments the IK failure counter for the given stage.
func RecordIKFailure(stage string) {
	IKFailuresTotal.WithLabelValues(stage).Inc()
}

// ObserveFrame updates the per-frame gauges.
func ObserveFrame(phase int, progress float64, paused bool) {
	CurrentPhase.Set(float64(phase))
	TrajectoryProgress.Set(progress)
	if paused {
		Paused.Set(1)
	} else {
		Paused.Set(0)
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

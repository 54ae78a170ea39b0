// Tracks port-wide counters such as dockings, retries and evaluator failures.

package sim

import (
	"fmt"
	"io"
)

// Metrics aggregates statistics about the simulation
// for final reporting. Useful for evaluating port behavior
// and debugging scheduling problems over time.
type Metrics struct {
	ProcessedMovements int // Movements fully resolved and shown to evaluators
	ShipArrivals       int // Inbound ships docked
	ShipDepartures     int // Outbound ships undocked
	CargoIn            int // Pieces of cargo received into storage
	CargoOut           int // Pieces of cargo released from storage

	UnservableAttempts int // Inbound ship attempts that found no free compatible quay
	AbandonedMovements int // Movements dropped after exhausting retries (always reported)
	Inconsistencies    int // Outbound movements for ships or cargo not at the port
	EvaluatorFailures  int // Evaluator errors or panics, isolated from the pipeline

	PeakQuaysOccupied int   // Max number of simultaneously occupied quays
	TotalWaitMinutes  int64 // Sum over docked ships of (dock minute - scheduled minute)
	SimEndedTime      int64 // Clock value when the run stopped
}

// NewMetrics returns zeroed metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// AverageWaitMinutes is the mean delay between a ship's scheduled arrival and its docking.
func (m *Metrics) AverageWaitMinutes() float64 {
	if m.ShipArrivals == 0 {
		return 0
	}
	return float64(m.TotalWaitMinutes) / float64(m.ShipArrivals)
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Port Metrics ===")
	fmt.Fprintf(w, "Simulated Minutes    : %d\n", m.SimEndedTime)
	fmt.Fprintf(w, "Processed Movements  : %d\n", m.ProcessedMovements)
	fmt.Fprintf(w, "Ship Arrivals        : %d\n", m.ShipArrivals)
	fmt.Fprintf(w, "Ship Departures      : %d\n", m.ShipDepartures)
	fmt.Fprintf(w, "Cargo In / Out       : %d / %d\n", m.CargoIn, m.CargoOut)
	fmt.Fprintf(w, "Peak Quays Occupied  : %d\n", m.PeakQuaysOccupied)
	if m.ShipArrivals > 0 {
		fmt.Fprintf(w, "Average Wait         : %.2f minutes\n", m.AverageWaitMinutes())
	}
	if m.UnservableAttempts > 0 || m.AbandonedMovements > 0 {
		fmt.Fprintf(w, "Unservable Attempts  : %d (abandoned: %d)\n", m.UnservableAttempts, m.AbandonedMovements)
	}
	if m.Inconsistencies > 0 {
		fmt.Fprintf(w, "Inconsistencies      : %d\n", m.Inconsistencies)
	}
	if m.EvaluatorFailures > 0 {
		fmt.Fprintf(w, "Evaluator Failures   : %d\n", m.EvaluatorFailures)
	}
}

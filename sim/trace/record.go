// Package trace provides decision-trace recording for port simulations.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// DockingRecord captures a ship being bound to a quay.
type DockingRecord struct {
	IMONumber int64
	QuayID    int
	Clock     int64
	Attempts  int // 1 when the ship docked on its first attempt
}

// DepartureRecord captures a ship leaving its quay.
type DepartureRecord struct {
	IMONumber int64
	QuayID    int
	Clock     int64
}

// UnservableRecord captures an inbound ship that found no compatible free quay.
type UnservableRecord struct {
	IMONumber int64
	Clock     int64
	Attempt   int
	RetryAt   int64 // -1 when the movement was abandoned
	Abandoned bool
}

// InconsistencyRecord captures an outbound movement for a ship or cargo
// that was not at the port.
type InconsistencyRecord struct {
	Movement string // encoded movement
	Clock    int64
	Reason   string
}

// EvaluatorFailureRecord captures an evaluator that returned an error or panicked.
type EvaluatorFailureRecord struct {
	Evaluator string
	Movement  string // encoded movement, empty when the minute hook failed
	Clock     int64
	Reason    string
}

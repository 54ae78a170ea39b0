package trace

// TraceSummary aggregates statistics from a PortTrace.
type TraceSummary struct {
	TotalDockings      int
	TotalDepartures    int
	UnservableAttempts int
	AbandonedShips     int
	Inconsistencies    int
	EvaluatorFailures  int
	MeanDockAttempts   float64
	MaxDockAttempts    int
	UniqueQuays        int
	QuayDistribution   map[int]int // quay ID → count of dockings
}

// Summarize computes aggregate statistics from a PortTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(pt *PortTrace) *TraceSummary {
	summary := &TraceSummary{
		QuayDistribution: make(map[int]int),
	}
	if pt == nil {
		return summary
	}

	summary.TotalDepartures = len(pt.Departures)
	summary.Inconsistencies = len(pt.Inconsistencies)
	summary.EvaluatorFailures = len(pt.EvaluatorFailures)

	for _, u := range pt.Unservable {
		summary.UnservableAttempts++
		if u.Abandoned {
			summary.AbandonedShips++
		}
	}

	if len(pt.Dockings) > 0 {
		totalAttempts := 0
		for _, d := range pt.Dockings {
			summary.QuayDistribution[d.QuayID]++
			totalAttempts += d.Attempts
			if d.Attempts > summary.MaxDockAttempts {
				summary.MaxDockAttempts = d.Attempts
			}
		}
		summary.TotalDockings = len(pt.Dockings)
		summary.MeanDockAttempts = float64(totalAttempts) / float64(len(pt.Dockings))
	}

	summary.UniqueQuays = len(summary.QuayDistribution)

	return summary
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/portsim/portsim/sim"
	"github.com/portsim/portsim/sim/store"
	"github.com/portsim/portsim/sim/trace"
)

// printEvaluatorReports writes one section per evaluator, in registration order.
func printEvaluatorReports(w io.Writer, evaluators []sim.StatisticsEvaluator) {
	for _, e := range evaluators {
		fmt.Fprintf(w, "=== %s ===\n", e.Name())
		switch ev := e.(type) {
		case *sim.ShipFlagEvaluator:
			printDistribution(w, ev.FlagDistribution())
		case *sim.ShipThroughputEvaluator:
			fmt.Fprintf(w, "Ships docked in the last hour: %d\n", ev.ThroughputPerHour())
		case *sim.CargoDecompositionEvaluator:
			printDistribution(w, ev.CargoDistribution())
			if bulk := ev.BulkCargoDistribution(); len(bulk) > 0 {
				fmt.Fprintln(w, "Bulk cargo by type:")
				printDistribution(w, bulk)
			}
			if boxes := ev.ContainerDistribution(); len(boxes) > 0 {
				fmt.Fprintln(w, "Containers by type:")
				printDistribution(w, boxes)
			}
		case *sim.QuayOccupancyEvaluator:
			fmt.Fprintf(w, "Quays occupied: %d\n", ev.QuaysOccupied())
		case *store.MovementLog:
			n, err := ev.Count(context.Background(), ev.RunID())
			if err != nil {
				fmt.Fprintf(w, "Movements logged: unavailable (%v)\n", err)
				continue
			}
			fmt.Fprintf(w, "Movements logged: %d\n", n)
		}
	}
}

func printDistribution(w io.Writer, dist map[string]int) {
	if len(dist) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, k := range slices.Sorted(maps.Keys(dist)) {
		fmt.Fprintf(w, "  %-12s: %d\n", k, dist[k])
	}
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Dockings             : %d (mean attempts %.2f, max %d)\n", s.TotalDockings, s.MeanDockAttempts, s.MaxDockAttempts)
	fmt.Fprintf(w, "Departures           : %d\n", s.TotalDepartures)
	fmt.Fprintf(w, "Unservable Attempts  : %d (abandoned: %d)\n", s.UnservableAttempts, s.AbandonedShips)
	fmt.Fprintf(w, "Inconsistencies      : %d\n", s.Inconsistencies)
	fmt.Fprintf(w, "Evaluator Failures   : %d\n", s.EvaluatorFailures)
	fmt.Fprintf(w, "Quays Used           : %d\n", s.UniqueQuays)
	for _, id := range slices.Sorted(maps.Keys(s.QuayDistribution)) {
		fmt.Fprintf(w, "  quay %-6d: %d dockings\n", id, s.QuayDistribution[id])
	}
}

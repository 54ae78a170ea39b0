package scenario

import (
	"fmt"
	"math"
	"slices"

	"github.com/portsim/portsim/sim"
)

const (
	// GeneratedIMOBase is the first IMO number handed to generated ships.
	// Declared ships may not use the range [base, base+count).
	GeneratedIMOBase  = 9_000_000
	maxGeneratedShips = 999_999
)

func isGeneratedIMO(imo int64, count int) bool {
	return imo >= GeneratedIMOBase && imo < GeneratedIMOBase+int64(count)
}

// GenerateArrivals synthesises spec.Count ship visits. Arrival gaps are drawn
// from the arrivals subsystem; ship attributes and stay lengths from the fleet
// subsystem. Each visit yields an inbound and an outbound movement.
// The result is sorted by time; movements at the same minute keep generation order.
func GenerateArrivals(spec *ArrivalsSpec, rng *sim.PartitionedRNG) ([]sim.Movement, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	arrivals := rng.ForSubsystem(sim.SubsystemArrivals)
	fleet := rng.ForSubsystem(sim.SubsystemFleet)

	movements := make([]sim.Movement, 0, 2*spec.Count)
	var clock int64
	for i := 0; i < spec.Count; i++ {
		clock += int64(math.Round(arrivals.ExpFloat64() * spec.MeanInterarrival))

		kind, capacity := sim.ContainerShip, 1+fleet.Intn(spec.MaxContainers)
		if fleet.Float64() < spec.BulkFraction {
			kind, capacity = sim.BulkCarrier, 1+fleet.Intn(spec.MaxTonnage)
		}
		flag := spec.Flags[fleet.Intn(len(spec.Flags))]
		stay := spec.MinStay + fleet.Int63n(spec.MaxStay-spec.MinStay+1)

		imo := GeneratedIMOBase + int64(i)
		ship, err := sim.NewShip(imo, fmt.Sprintf("Generated %d", i+1), flag, kind, capacity)
		if err != nil {
			return nil, fmt.Errorf("generated ship %d: %w", i, err)
		}
		in, err := sim.NewShipMovement(clock, sim.Inbound, ship)
		if err != nil {
			return nil, fmt.Errorf("generated ship %d: %w", i, err)
		}
		out, err := sim.NewShipMovement(clock+stay, sim.Outbound, ship)
		if err != nil {
			return nil, fmt.Errorf("generated ship %d: %w", i, err)
		}
		movements = append(movements, in, out)
	}

	slices.SortStableFunc(movements, func(a, b sim.Movement) int {
		switch {
		case a.Time() < b.Time():
			return -1
		case a.Time() > b.Time():
			return 1
		}
		return 0
	})
	return movements, nil
}

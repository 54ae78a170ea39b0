package sim

import (
	"fmt"
	"maps"
)

// StatisticsEvaluator observes every movement the port processes and keeps
// whatever aggregate it needs. Evaluators only read the movement; they must
// never mutate it or the port.
type StatisticsEvaluator interface {
	// Name identifies the evaluator in logs, traces and reports.
	Name() string
	// OnProcessMovement is invoked exactly once per processed movement,
	// in processing order.
	OnProcessMovement(m Movement) error
}

// MinuteObserver is implemented by evaluators that track simulated time.
// The port calls OnElapseMinute once per minute, before processing the
// movements due in that minute.
type MinuteObserver interface {
	OnElapseMinute(now int64)
}

// QuayView is read-only access to a port's quays.
type QuayView interface {
	Quays() []QuayReader
}

// NewStatisticsEvaluator creates an evaluator by name.
// Valid names are listed in ValidEvaluators. quays is only used by the
// quay-occupancy evaluator and may be nil otherwise.
func NewStatisticsEvaluator(name string, quays QuayView) (StatisticsEvaluator, error) {
	switch name {
	case "ship-flag":
		return NewShipFlagEvaluator(), nil
	case "ship-throughput":
		return NewShipThroughputEvaluator(), nil
	case "cargo-decomposition":
		return NewCargoDecompositionEvaluator(), nil
	case "quay-occupancy":
		if quays == nil {
			return nil, fmt.Errorf("quay-occupancy evaluator requires a quay view: %w", ErrInvalidArgument)
		}
		return NewQuayOccupancyEvaluator(quays), nil
	default:
		return nil, fmt.Errorf("unknown evaluator %q: %w", name, ErrInvalidArgument)
	}
}

// ValidEvaluators is the set of evaluator names accepted by NewStatisticsEvaluator.
var ValidEvaluators = map[string]bool{
	"ship-flag":           true,
	"ship-throughput":     true,
	"cargo-decomposition": true,
	"quay-occupancy":      true,
}

// ShipFlagEvaluator counts inbound ships by the flag they sail under.
type ShipFlagEvaluator struct {
	distribution map[string]int
}

func NewShipFlagEvaluator() *ShipFlagEvaluator {
	return &ShipFlagEvaluator{distribution: make(map[string]int)}
}

func (e *ShipFlagEvaluator) Name() string {
	return "ship-flag"
}

// OnProcessMovement ignores cargo movements and outbound ship movements.
func (e *ShipFlagEvaluator) OnProcessMovement(m Movement) error {
	sm, ok := m.(*ShipMovement)
	if !ok || sm.Direction() != Inbound {
		return nil
	}
	e.distribution[sm.Ship().OriginFlag]++
	return nil
}

// FlagStatistics returns how many inbound ships carried the flag; 0 if never seen.
func (e *ShipFlagEvaluator) FlagStatistics(flag string) int {
	return e.distribution[flag]
}

// FlagDistribution returns a copy of the flag → count mapping.
func (e *ShipFlagEvaluator) FlagDistribution() map[string]int {
	return maps.Clone(e.distribution)
}

// throughputWindow is the length of the rolling throughput window in minutes.
const throughputWindow = 60

// ShipThroughputEvaluator counts ships that entered the port during the last hour.
type ShipThroughputEvaluator struct {
	now     int64
	entries []int64 // minute each ship docked, oldest first
}

func NewShipThroughputEvaluator() *ShipThroughputEvaluator {
	return &ShipThroughputEvaluator{}
}

func (e *ShipThroughputEvaluator) Name() string {
	return "ship-throughput"
}

func (e *ShipThroughputEvaluator) OnProcessMovement(m Movement) error {
	sm, ok := m.(*ShipMovement)
	if !ok || sm.Direction() != Inbound {
		return nil
	}
	e.entries = append(e.entries, e.now)
	return nil
}

// OnElapseMinute drops ships that entered more than an hour ago.
func (e *ShipThroughputEvaluator) OnElapseMinute(now int64) {
	e.now = now
	keep := 0
	for keep < len(e.entries) && now-e.entries[keep] > throughputWindow {
		keep++
	}
	e.entries = e.entries[keep:]
}

// ThroughputPerHour returns the number of ships that entered in the last 60 minutes.
func (e *ShipThroughputEvaluator) ThroughputPerHour() int {
	return len(e.entries)
}

// CargoDecompositionEvaluator breaks inbound cargo down by kind and type.
type CargoDecompositionEvaluator struct {
	byKind      map[string]int
	bulkByType  map[string]int
	boxesByType map[string]int
}

func NewCargoDecompositionEvaluator() *CargoDecompositionEvaluator {
	return &CargoDecompositionEvaluator{
		byKind:      make(map[string]int),
		bulkByType:  make(map[string]int),
		boxesByType: make(map[string]int),
	}
}

func (e *CargoDecompositionEvaluator) Name() string {
	return "cargo-decomposition"
}

func (e *CargoDecompositionEvaluator) OnProcessMovement(m Movement) error {
	cm, ok := m.(*CargoMovement)
	if !ok || cm.Direction() != Inbound {
		return nil
	}
	for _, c := range cm.cargo {
		e.byKind[c.Kind.String()]++
		switch c.Kind {
		case BulkCargo:
			e.bulkByType[c.Type]++
		case Container:
			e.boxesByType[c.Type]++
		}
	}
	return nil
}

// CargoDistribution returns a copy of the cargo kind → count mapping.
func (e *CargoDecompositionEvaluator) CargoDistribution() map[string]int {
	return maps.Clone(e.byKind)
}

// BulkCargoDistribution returns a copy of the bulk cargo type → count mapping.
func (e *CargoDecompositionEvaluator) BulkCargoDistribution() map[string]int {
	return maps.Clone(e.bulkByType)
}

// ContainerDistribution returns a copy of the container type → count mapping.
func (e *CargoDecompositionEvaluator) ContainerDistribution() map[string]int {
	return maps.Clone(e.boxesByType)
}

// QuayOccupancyEvaluator reports how many of the port's quays hold a ship.
// It reads quay state directly instead of accumulating from movements.
type QuayOccupancyEvaluator struct {
	quays QuayView
}

func NewQuayOccupancyEvaluator(quays QuayView) *QuayOccupancyEvaluator {
	return &QuayOccupancyEvaluator{quays: quays}
}

func (e *QuayOccupancyEvaluator) Name() string {
	return "quay-occupancy"
}

func (e *QuayOccupancyEvaluator) OnProcessMovement(Movement) error {
	return nil
}

// QuaysOccupied returns the number of quays currently holding a ship.
func (e *QuayOccupancyEvaluator) QuaysOccupied() int {
	n := 0
	for _, q := range e.quays.Quays() {
		if q.IsOccupied() {
			n++
		}
	}
	return n
}

package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestShip(t *testing.T, imo int64, flag string, kind ShipKind, capacity int) *Ship {
	t.Helper()
	s, err := NewShip(imo, "Ship"+flag, flag, kind, capacity)
	require.NoError(t, err)
	return s
}

func newTestBulkCarrier(t *testing.T, imo int64, tonnage int) *Ship {
	t.Helper()
	return newTestShip(t, imo, "AUS", BulkCarrier, tonnage)
}

func newTestBulkQuay(t *testing.T, id, maxTonnage int) *BulkQuay {
	t.Helper()
	q, err := NewBulkQuay(id, maxTonnage)
	require.NoError(t, err)
	return q
}

func newTestContainerQuay(t *testing.T, id, maxContainers int) *ContainerQuay {
	t.Helper()
	q, err := NewContainerQuay(id, maxContainers)
	require.NoError(t, err)
	return q
}

func shipMovement(t *testing.T, time int64, d Direction, ship *Ship) *ShipMovement {
	t.Helper()
	m, err := NewShipMovement(time, d, ship)
	require.NoError(t, err)
	return m
}

func cargoMovement(t *testing.T, time int64, d Direction, cargo ...*Cargo) *CargoMovement {
	t.Helper()
	m, err := NewCargoMovement(time, d, cargo)
	require.NoError(t, err)
	return m
}

func newTestCargo(t *testing.T, id int, kind CargoKind, cargoType string) *Cargo {
	t.Helper()
	c, err := NewCargo(id, "Brisbane", kind, cargoType, 10)
	require.NoError(t, err)
	return c
}

// recordingEvaluator remembers every movement it sees, in order.
type recordingEvaluator struct {
	name string
	seen []Movement
	log  *[]string // shared across evaluators to check notification order
}

func (e *recordingEvaluator) Name() string {
	return e.name
}

func (e *recordingEvaluator) OnProcessMovement(m Movement) error {
	e.seen = append(e.seen, m)
	if e.log != nil {
		*e.log = append(*e.log, e.name)
	}
	return nil
}

// panickingEvaluator always panics.
type panickingEvaluator struct{}

func (panickingEvaluator) Name() string {
	return "panicking"
}

func (panickingEvaluator) OnProcessMovement(Movement) error {
	panic("evaluator exploded")
}

// tickPanicker sees movements normally but panics on every minute tick.
type tickPanicker struct {
	seen int
}

func (e *tickPanicker) Name() string {
	return "tick-panicker"
}

func (e *tickPanicker) OnProcessMovement(Movement) error {
	e.seen++
	return nil
}

func (e *tickPanicker) OnElapseMinute(int64) {
	panic("tick exploded")
}

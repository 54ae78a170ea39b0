package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portsim/portsim/sim/trace"
)

func tracedConfig() PortConfig {
	cfg := DefaultPortConfig()
	cfg.Trace = trace.TraceConfig{Level: trace.TraceLevelDecisions}
	return cfg
}

func TestPort_AddQuay_DuplicateID_Rejected(t *testing.T) {
	p := NewPort(DefaultPortConfig())
	require.NoError(t, p.AddQuay(newTestBulkQuay(t, 1, 100)))

	err := p.AddQuay(newTestContainerQuay(t, 1, 10))

	assert.ErrorIs(t, err, ErrDuplicateQuay)
	assert.Len(t, p.Quays(), 1)
}

func TestPort_AddQuay_OccupiedQuay_Rejected(t *testing.T) {
	p := NewPort(DefaultPortConfig())
	q := newTestBulkQuay(t, 1, 100)
	require.NoError(t, q.Dock(newTestBulkCarrier(t, 1234567, 10)))

	assert.ErrorIs(t, p.AddQuay(q), ErrQuayOccupied)
}

func TestPort_Schedule_PastMovement_Rejected(t *testing.T) {
	p := NewPort(DefaultPortConfig())
	require.NoError(t, p.ElapseOneMinute())
	require.NoError(t, p.ElapseOneMinute())

	err := p.Schedule(shipMovement(t, 1, Inbound, newTestBulkCarrier(t, 1234567, 10)))

	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, p.Pending())
}

func TestNewPort_InvalidConfig_Panics(t *testing.T) {
	assert.Panics(t, func() { NewPort(PortConfig{RetryDelay: 0}) })
}

// TestPort_UnservableThenRetry walks the canonical single-quay scenario:
// a second ship finds the only quay busy, is retried, and docks once the
// first ship leaves.
func TestPort_UnservableThenRetry(t *testing.T) {
	// GIVEN a port with a single bulk quay of 100 tonnes
	p := NewPort(tracedConfig())
	quay := newTestBulkQuay(t, 1, 100)
	require.NoError(t, p.AddQuay(quay))
	first := newTestBulkCarrier(t, 1000001, 80)
	second := newTestBulkCarrier(t, 1000002, 50)

	require.NoError(t, p.Schedule(shipMovement(t, 0, Inbound, first)))
	require.NoError(t, p.Schedule(shipMovement(t, 1, Inbound, second)))
	require.NoError(t, p.Schedule(shipMovement(t, 2, Outbound, first)))

	// WHEN minute 0 is processed
	require.NoError(t, p.ProcessDue())

	// THEN the first ship docks at quay 1
	assert.Same(t, first, quay.Ship())

	// WHEN minute 1 is processed
	err := p.ElapseOneMinute()

	// THEN the second ship is reported unservable and kept for retry
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnservableMovement)
	var me *MovementError
	require.True(t, errors.As(err, &me))
	assert.True(t, me.Retrying)
	assert.Equal(t, int64(1), me.Clock)
	assert.Same(t, first, quay.Ship())
	assert.Equal(t, 2, p.Pending(), "retry and departure still pending")

	// WHEN minute 2 is processed
	require.NoError(t, p.ElapseOneMinute())

	// THEN the first ship has left and the retried ship took its place
	assert.Same(t, second, quay.Ship())
	q, ok := p.QuayOf(second.IMONumber)
	require.True(t, ok)
	assert.Equal(t, 1, q.ID())
	_, ok = p.QuayOf(first.IMONumber)
	assert.False(t, ok)

	m := p.Metrics()
	assert.Equal(t, 2, m.ShipArrivals)
	assert.Equal(t, 1, m.ShipDepartures)
	assert.Equal(t, 1, m.UnservableAttempts)
	assert.Equal(t, int64(1), m.TotalWaitMinutes)

	summary := trace.Summarize(p.Trace())
	assert.Equal(t, 2, summary.TotalDockings)
	assert.Equal(t, 1, summary.UnservableAttempts)
	assert.Equal(t, 2, summary.MaxDockAttempts)
}

func TestPort_FirstFitInRegistrationOrder(t *testing.T) {
	// GIVEN quays where the first compatible quay is not the tightest fit
	p := NewPort(DefaultPortConfig())
	small := newTestBulkQuay(t, 1, 50)
	box := newTestContainerQuay(t, 2, 500)
	large := newTestBulkQuay(t, 3, 500)
	tight := newTestBulkQuay(t, 4, 80)
	for _, q := range []Quay{small, box, large, tight} {
		require.NoError(t, p.AddQuay(q))
	}

	// WHEN an 80 tonne bulk carrier arrives
	ship := newTestBulkCarrier(t, 1234567, 80)
	require.NoError(t, p.Schedule(shipMovement(t, 0, Inbound, ship)))
	require.NoError(t, p.ProcessDue())

	// THEN it takes the first compatible quay, not the best-fitting one
	assert.Same(t, ship, large.Ship())
	assert.False(t, tight.IsOccupied())
	assert.False(t, box.IsOccupied())
}

func TestPort_KindMismatch_NeverDocks(t *testing.T) {
	// GIVEN only a container quay
	p := NewPort(tracedConfig())
	require.NoError(t, p.AddQuay(newTestContainerQuay(t, 1, 1000)))

	// WHEN a bulk carrier arrives
	require.NoError(t, p.Schedule(shipMovement(t, 0, Inbound, newTestBulkCarrier(t, 1234567, 10))))
	err := p.ProcessDue()

	// THEN it is abandoned immediately and reported, since no quay could ever take it
	assert.ErrorIs(t, err, ErrUnservableMovement)
	var me *MovementError
	require.True(t, errors.As(err, &me))
	assert.False(t, me.Retrying)
	assert.Equal(t, 0, p.Pending())
	assert.Equal(t, 1, p.Metrics().AbandonedMovements)
	require.Len(t, p.Trace().Unservable, 1)
	assert.True(t, p.Trace().Unservable[0].Abandoned)
}

func TestPort_MaxRetries_Abandons(t *testing.T) {
	// GIVEN a port allowing two retries and a quay that never frees up
	cfg := DefaultPortConfig()
	cfg.MaxRetries = 2
	p := NewPort(cfg)
	require.NoError(t, p.AddQuay(newTestBulkQuay(t, 1, 100)))
	require.NoError(t, p.Schedule(shipMovement(t, 0, Inbound, newTestBulkCarrier(t, 1000001, 10))))
	require.NoError(t, p.Schedule(shipMovement(t, 0, Inbound, newTestBulkCarrier(t, 1000002, 10))))

	// WHEN the port runs
	err := p.Run(100)

	// THEN the waiting ship is abandoned after 3 attempts and the abandonment is returned
	assert.ErrorIs(t, err, ErrUnservableMovement)
	m := p.Metrics()
	assert.Equal(t, 3, m.UnservableAttempts)
	assert.Equal(t, 1, m.AbandonedMovements)
	assert.Equal(t, 0, p.Pending())
	assert.Equal(t, int64(2), p.Clock())
}

func TestPort_OutboundShipNotDocked_ReportsInconsistency(t *testing.T) {
	p := NewPort(tracedConfig())
	require.NoError(t, p.AddQuay(newTestBulkQuay(t, 1, 100)))
	rec := &recordingEvaluator{name: "rec"}
	p.RegisterEvaluator(rec)

	require.NoError(t, p.Schedule(shipMovement(t, 0, Outbound, newTestBulkCarrier(t, 1234567, 10))))
	err := p.ProcessDue()

	assert.ErrorIs(t, err, ErrInconsistentDeparture)
	assert.Equal(t, 1, p.Metrics().Inconsistencies)
	assert.Len(t, p.Trace().Inconsistencies, 1)
	assert.Empty(t, rec.seen, "unresolved movements are not shown to evaluators")
}

func TestPort_InboundShipAlreadyDocked_ReportsInconsistency(t *testing.T) {
	p := NewPort(DefaultPortConfig())
	require.NoError(t, p.AddQuay(newTestBulkQuay(t, 1, 100)))
	require.NoError(t, p.AddQuay(newTestBulkQuay(t, 2, 100)))
	ship := newTestBulkCarrier(t, 1234567, 10)
	require.NoError(t, p.Schedule(shipMovement(t, 0, Inbound, ship)))
	require.NoError(t, p.Schedule(shipMovement(t, 0, Inbound, ship)))

	err := p.ProcessDue()

	assert.ErrorIs(t, err, ErrShipAlreadyDocked)
	occupied := 0
	for _, q := range p.Quays() {
		if q.IsOccupied() {
			occupied++
		}
	}
	assert.Equal(t, 1, occupied, "a ship is docked at no more than one quay")
}

func TestPort_CargoStorage(t *testing.T) {
	p := NewPort(DefaultPortConfig())
	grain := newTestCargo(t, 2, BulkCargo, "GRAIN")
	box := newTestCargo(t, 1, Container, "STANDARD")

	require.NoError(t, p.Schedule(cargoMovement(t, 0, Inbound, grain, box)))
	require.NoError(t, p.ProcessDue())
	stored := p.StoredCargo()
	require.Len(t, stored, 2)
	assert.Equal(t, 1, stored[0].ID)
	assert.Equal(t, 2, stored[1].ID)

	// duplicate inbound is rejected whole
	require.NoError(t, p.Schedule(cargoMovement(t, 0, Inbound, newTestCargo(t, 3, Container, "STANDARD"), grain)))
	assert.ErrorIs(t, p.ProcessDue(), ErrCargoAlreadyStored)
	assert.Len(t, p.StoredCargo(), 2)

	// outbound with a missing piece is rejected whole
	require.NoError(t, p.Schedule(cargoMovement(t, 0, Outbound, grain, newTestCargo(t, 9, Container, "STANDARD"))))
	assert.ErrorIs(t, p.ProcessDue(), ErrInconsistentDeparture)
	assert.Len(t, p.StoredCargo(), 2)

	require.NoError(t, p.Schedule(cargoMovement(t, 0, Outbound, grain)))
	require.NoError(t, p.ProcessDue())
	assert.Len(t, p.StoredCargo(), 1)
	assert.Equal(t, 2, p.Metrics().CargoIn)
	assert.Equal(t, 1, p.Metrics().CargoOut)
}

func TestPort_EvaluatorsNotifiedInOrder(t *testing.T) {
	// GIVEN two evaluators sharing a notification log
	p := NewPort(DefaultPortConfig())
	require.NoError(t, p.AddQuay(newTestBulkQuay(t, 1, 100)))
	var log []string
	a := &recordingEvaluator{name: "a", log: &log}
	b := &recordingEvaluator{name: "b", log: &log}
	p.RegisterEvaluator(a)
	p.RegisterEvaluator(b)

	ship := newTestBulkCarrier(t, 1234567, 10)
	late := shipMovement(t, 10, Outbound, ship)
	early := shipMovement(t, 5, Inbound, ship)
	require.NoError(t, p.Schedule(late))
	require.NoError(t, p.Schedule(early))

	// WHEN the port runs
	require.NoError(t, p.Run(100))

	// THEN each evaluator saw every movement once, in time order, a before b
	assert.Equal(t, []Movement{early, late}, a.seen)
	assert.Equal(t, []Movement{early, late}, b.seen)
	assert.Equal(t, []string{"a", "b", "a", "b"}, log)
	assert.Equal(t, int64(10), p.Clock())
}

func TestPort_SameMinuteMovements_ProcessedInScheduleOrder(t *testing.T) {
	p := NewPort(DefaultPortConfig())
	for i := 0; i < 3; i++ {
		require.NoError(t, p.AddQuay(newTestBulkQuay(t, i, 100)))
	}
	rec := &recordingEvaluator{name: "rec"}
	p.RegisterEvaluator(rec)

	var want []Movement
	for i := int64(0); i < 3; i++ {
		m := shipMovement(t, 5, Inbound, newTestBulkCarrier(t, 1000000+i, 10))
		want = append(want, m)
		require.NoError(t, p.Schedule(m))
	}
	require.NoError(t, p.Run(10))

	assert.Equal(t, want, rec.seen)
	for i, q := range p.Quays() {
		assert.Equal(t, int64(1000000+i), q.Ship().IMONumber, "quay %d", q.ID())
	}
}

func TestPort_PanickingEvaluator_IsIsolated(t *testing.T) {
	// GIVEN a panicking evaluator registered before a healthy one
	p := NewPort(tracedConfig())
	require.NoError(t, p.AddQuay(newTestBulkQuay(t, 1, 100)))
	flags := NewShipFlagEvaluator()
	p.RegisterEvaluator(panickingEvaluator{})
	p.RegisterEvaluator(flags)

	ship := newTestBulkCarrier(t, 1234567, 10)
	require.NoError(t, p.Schedule(shipMovement(t, 0, Inbound, ship)))
	require.NoError(t, p.Schedule(shipMovement(t, 1, Outbound, ship)))

	// WHEN the port runs
	err := p.Run(10)

	// THEN the failure is reported but later evaluators and minutes still run
	assert.ErrorIs(t, err, ErrEvaluatorFailed)
	assert.Equal(t, 1, flags.FlagStatistics("AUS"))
	assert.Equal(t, 2, p.Metrics().ProcessedMovements)
	assert.Equal(t, 2, p.Metrics().EvaluatorFailures)
	require.Len(t, p.Trace().EvaluatorFailures, 2)
	assert.Equal(t, "panicking", p.Trace().EvaluatorFailures[0].Evaluator)
	assert.False(t, p.Quays()[0].IsOccupied())
}

func TestPort_Run_StopsAtHorizon(t *testing.T) {
	p := NewPort(DefaultPortConfig())
	require.NoError(t, p.AddQuay(newTestBulkQuay(t, 1, 100)))
	require.NoError(t, p.Schedule(shipMovement(t, 1000, Inbound, newTestBulkCarrier(t, 1234567, 10))))

	require.NoError(t, p.Run(50))

	assert.Equal(t, int64(50), p.Clock())
	assert.Equal(t, 1, p.Pending())
	assert.Equal(t, int64(50), p.Metrics().SimEndedTime)
}

func TestPort_Run_MinuteObserversSeeEveryMinute(t *testing.T) {
	p := NewPort(DefaultPortConfig())
	require.NoError(t, p.AddQuay(newTestBulkQuay(t, 1, 100)))
	throughput := NewShipThroughputEvaluator()
	p.RegisterEvaluator(throughput)
	require.NoError(t, p.Schedule(shipMovement(t, 30, Inbound, newTestBulkCarrier(t, 1234567, 10))))
	require.NoError(t, p.Schedule(shipMovement(t, 95, Outbound, newTestBulkCarrier(t, 1234567, 10))))

	require.NoError(t, p.Run(1000))

	assert.Equal(t, int64(95), p.Clock())
	assert.Equal(t, 0, throughput.ThroughputPerHour(), "the minute-30 arrival left the window at minute 91")
}

func TestPort_Determinism(t *testing.T) {
	run := func() *Metrics {
		p := NewPort(DefaultPortConfig())
		require.NoError(t, p.AddQuay(newTestBulkQuay(t, 1, 100)))
		require.NoError(t, p.AddQuay(newTestContainerQuay(t, 2, 40)))
		for i := int64(0); i < 10; i++ {
			kind := BulkCarrier
			if i%2 == 1 {
				kind = ContainerShip
			}
			ship := newTestShip(t, 1000000+i, "AUS", kind, 30)
			require.NoError(t, p.Schedule(shipMovement(t, i, Inbound, ship)))
			require.NoError(t, p.Schedule(shipMovement(t, i+3, Outbound, ship)))
		}
		_ = p.Run(500)
		return p.Metrics()
	}
	assert.Equal(t, run(), run())
}

func TestPort_PanickingMinuteObserver_IsIsolated(t *testing.T) {
	// GIVEN a minute observer that panics on every tick, registered before a healthy evaluator
	p := NewPort(tracedConfig())
	require.NoError(t, p.AddQuay(newTestBulkQuay(t, 1, 100)))
	ticker := &tickPanicker{}
	flags := NewShipFlagEvaluator()
	p.RegisterEvaluator(ticker)
	p.RegisterEvaluator(flags)
	ship := newTestBulkCarrier(t, 1234567, 10)
	require.NoError(t, p.Schedule(shipMovement(t, 1, Inbound, ship)))

	// WHEN minute 1 elapses
	var err error
	assert.NotPanics(t, func() { err = p.ElapseOneMinute() })

	// THEN the failure is reported and the minute's movements are still processed
	assert.ErrorIs(t, err, ErrEvaluatorFailed)
	assert.Equal(t, 1, p.Metrics().ShipArrivals)
	assert.Equal(t, 1, ticker.seen)
	assert.Equal(t, 1, flags.FlagStatistics("AUS"))
	assert.Equal(t, 1, p.Metrics().EvaluatorFailures)
	require.Len(t, p.Trace().EvaluatorFailures, 1)
	rec := p.Trace().EvaluatorFailures[0]
	assert.Equal(t, "tick-panicker", rec.Evaluator)
	assert.Empty(t, rec.Movement)
	assert.Equal(t, int64(1), rec.Clock)

	// AND later minutes keep running
	require.NoError(t, p.Schedule(shipMovement(t, 3, Outbound, ship)))
	err = p.Run(3)
	assert.ErrorIs(t, err, ErrEvaluatorFailed)
	assert.Equal(t, int64(3), p.Clock())
	assert.Equal(t, 1, p.Metrics().ShipDepartures)
	assert.Equal(t, 3, p.Metrics().EvaluatorFailures)
}

func TestPort_Quays_AreReadOnly(t *testing.T) {
	p := NewPort(DefaultPortConfig())
	require.NoError(t, p.AddQuay(newTestBulkQuay(t, 1, 100)))
	ship := newTestBulkCarrier(t, 1234567, 10)
	require.NoError(t, p.Schedule(shipMovement(t, 0, Inbound, ship)))
	require.NoError(t, p.ProcessDue())

	for _, q := range p.Quays() {
		_, mutable := q.(Quay)
		assert.False(t, mutable, "Quays must not expose Dock or Undock")
	}
	q, ok := p.QuayOf(ship.IMONumber)
	require.True(t, ok)
	_, mutable := q.(Quay)
	assert.False(t, mutable, "QuayOf must not expose Dock or Undock")
	assert.Equal(t, "BulkQuay:1:1234567:100", q.Encode())
}

// TestPort_QuayUndockedOutsidePort_ReportsInconsistency covers a caller
// emptying a quay through its own reference while the port thinks it is occupied.
func TestPort_QuayUndockedOutsidePort_ReportsInconsistency(t *testing.T) {
	// GIVEN a docked ship whose quay is then emptied by the caller
	p := NewPort(tracedConfig())
	quay := newTestBulkQuay(t, 1, 100)
	require.NoError(t, p.AddQuay(quay))
	ship := newTestBulkCarrier(t, 1234567, 10)
	require.NoError(t, p.Schedule(shipMovement(t, 0, Inbound, ship)))
	require.NoError(t, p.ProcessDue())
	_, err := quay.Undock()
	require.NoError(t, err)

	// WHEN the ship's departure is processed
	require.NoError(t, p.Schedule(shipMovement(t, 1, Outbound, ship)))
	assert.NotPanics(t, func() { err = p.Run(5) })

	// THEN it is reported as an inconsistent departure and the registry is cleared
	assert.ErrorIs(t, err, ErrInconsistentDeparture)
	assert.Equal(t, 1, p.Metrics().Inconsistencies)
	assert.Equal(t, 0, p.Metrics().ShipDepartures)
	assert.Len(t, p.Trace().Inconsistencies, 1)
	_, ok := p.QuayOf(ship.IMONumber)
	assert.False(t, ok)

	// AND the ship can dock again
	require.NoError(t, p.Schedule(shipMovement(t, p.Clock(), Inbound, ship)))
	require.NoError(t, p.ProcessDue())
	assert.Same(t, ship, quay.Ship())
}

func TestPort_DepartureMatchesByIMONumber(t *testing.T) {
	// GIVEN a docked ship whose capacity was later changed
	p := NewPort(DefaultPortConfig())
	quay := newTestBulkQuay(t, 1, 100)
	require.NoError(t, p.AddQuay(quay))
	ship := newTestBulkCarrier(t, 1234567, 80)
	require.NoError(t, p.Schedule(shipMovement(t, 0, Inbound, ship)))
	require.NoError(t, p.ProcessDue())
	ship.Capacity = 500

	// WHEN it departs
	require.NoError(t, p.Schedule(shipMovement(t, 1, Outbound, ship)))
	require.NoError(t, p.Run(5))

	// THEN the quay is freed; departure never re-checks fit
	assert.False(t, quay.IsOccupied())
	assert.Equal(t, 1, p.Metrics().ShipDepartures)
}

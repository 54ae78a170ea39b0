package sim

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/portsim/portsim/sim/trace"
)

// MovementError reports a movement the port could not resolve cleanly.
// Retrying is true when the movement was put back on the queue and will be
// attempted again; otherwise the condition is final for that movement.
type MovementError struct {
	Movement Movement
	Clock    int64
	Retrying bool
	Err      error
}

func (e *MovementError) Error() string {
	return fmt.Sprintf("minute %d: %s: %v", e.Clock, e.Movement.Encode(), e.Err)
}

func (e *MovementError) Unwrap() error {
	return e.Err
}

// Port owns the quays, the pending-movement queue and the registered
// evaluators, and drives simulated time one minute at a time.
// A Port is not safe for concurrent use; all processing happens on the
// caller's goroutine.
type Port struct {
	config PortConfig
	clock  int64

	// quays in registration order; matching is first-fit over this order
	quays   []Quay
	quayIDs map[int]bool
	// docked maps IMO number → the quay holding that ship
	docked map[int64]Quay

	queue      *MovementQueue
	evaluators []StatisticsEvaluator
	stored     map[int]*Cargo

	metrics *Metrics
	trace   *trace.PortTrace // nil when tracing is disabled
}

// NewPort creates an empty port at minute 0.
// Panics if config fails validation.
func NewPort(config PortConfig) *Port {
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("NewPort: %v", err))
	}
	p := &Port{
		config:  config,
		quayIDs: make(map[int]bool),
		docked:  make(map[int64]Quay),
		queue:   NewMovementQueue(),
		stored:  make(map[int]*Cargo),
		metrics: NewMetrics(),
	}
	if config.Trace.Enabled() {
		p.trace = trace.NewPortTrace(config.Trace)
	}
	return p
}

// AddQuay registers a quay. Quays are matched in the order they are added.
func (p *Port) AddQuay(q Quay) error {
	if q == nil {
		panic("AddQuay: quay must not be nil")
	}
	if p.quayIDs[q.ID()] {
		return fmt.Errorf("quay %d: %w", q.ID(), ErrDuplicateQuay)
	}
	if q.IsOccupied() {
		return fmt.Errorf("quay %d must be empty when added: %w", q.ID(), ErrQuayOccupied)
	}
	p.quayIDs[q.ID()] = true
	p.quays = append(p.quays, q)
	return nil
}

// RegisterEvaluator adds an evaluator. Evaluators are notified in registration order.
func (p *Port) RegisterEvaluator(e StatisticsEvaluator) {
	if e == nil {
		panic("RegisterEvaluator: evaluator must not be nil")
	}
	p.evaluators = append(p.evaluators, e)
}

// Schedule queues a movement. Movements scheduled for a minute that has
// already passed are rejected.
func (p *Port) Schedule(m Movement) error {
	if m == nil {
		panic("Schedule: movement must not be nil")
	}
	if m.Time() < p.clock {
		return fmt.Errorf("movement %s is scheduled before the current minute %d: %w",
			m.Encode(), p.clock, ErrInvalidArgument)
	}
	p.queue.Enqueue(m)
	return nil
}

// Clock returns the current simulated minute.
func (p *Port) Clock() int64 {
	return p.clock
}

// Quays returns read-only views of the port's quays in registration order.
func (p *Port) Quays() []QuayReader {
	out := make([]QuayReader, len(p.quays))
	for i, q := range p.quays {
		out[i] = readOnly(q)
	}
	return out
}

// QuayOf returns the quay holding the ship with the given IMO number.
func (p *Port) QuayOf(imoNumber int64) (QuayReader, bool) {
	q, ok := p.docked[imoNumber]
	if !ok {
		return nil, false
	}
	return readOnly(q), true
}

// StoredCargo returns the cargo currently held by the port, ordered by ID.
func (p *Port) StoredCargo() []*Cargo {
	out := make([]*Cargo, 0, len(p.stored))
	for _, c := range p.stored {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Cargo) int { return a.ID - b.ID })
	return out
}

// Pending returns the number of movements waiting in the queue, retries included.
func (p *Port) Pending() int {
	return p.queue.Len()
}

// Evaluators returns the registered evaluators in registration order.
func (p *Port) Evaluators() []StatisticsEvaluator {
	return slices.Clone(p.evaluators)
}

// Metrics returns the port's running counters.
func (p *Port) Metrics() *Metrics {
	return p.metrics
}

// Trace returns the decision trace, or nil when tracing is disabled.
func (p *Port) Trace() *trace.PortTrace {
	return p.trace
}

// ElapseOneMinute advances the clock by one minute, lets minute observers
// see the new time, then processes every movement now due.
// The returned error joins every MovementError raised during the minute and
// any minute observer that failed; a failing observer never stops the tick.
func (p *Port) ElapseOneMinute() error {
	p.clock++
	logrus.Debugf("[minute %06d] elapsed, %d movements pending", p.clock, p.queue.Len())
	var errs []error
	for _, e := range p.evaluators {
		mo, ok := e.(MinuteObserver)
		if !ok {
			continue
		}
		if err := observeMinute(mo, p.clock); err != nil {
			errs = append(errs, p.evaluatorFailed(e, "", err))
		}
	}
	if err := p.ProcessDue(); err != nil {
		errs = append(errs, flatten(err)...)
	}
	return errors.Join(errs...)
}

// ProcessDue processes, in queue order, every movement due at or before the
// current minute. Unservable ships are re-queued after the configured delay,
// so this always terminates.
func (p *Port) ProcessDue() error {
	var errs []error
	for {
		due, ok := p.queue.PeekDue()
		if !ok || due > p.clock {
			break
		}
		if err := p.process(p.queue.popNext()); err != nil {
			errs = append(errs, flatten(err)...)
		}
	}
	p.metrics.SimEndedTime = p.clock
	return errors.Join(errs...)
}

// Run processes movements due now, then elapses minutes until the queue is
// drained or the clock reaches horizon. Retry notices are not returned;
// every other MovementError is joined into the result.
func (p *Port) Run(horizon int64) error {
	var errs []error
	collect := func(err error) {
		if err == nil {
			return
		}
		for _, e := range flatten(err) {
			var me *MovementError
			if errors.As(e, &me) && me.Retrying {
				continue
			}
			errs = append(errs, e)
		}
	}

	collect(p.ProcessDue())
	for p.queue.Len() > 0 && p.clock < horizon {
		p.skipIdleMinutes(horizon)
		collect(p.ElapseOneMinute())
	}
	logrus.Infof("[minute %06d] Simulation ended, %d movements pending", p.clock, p.queue.Len())
	return errors.Join(errs...)
}

// skipIdleMinutes jumps the clock to just before the next due movement when
// no evaluator needs to see every minute.
func (p *Port) skipIdleMinutes(horizon int64) {
	for _, e := range p.evaluators {
		if _, ok := e.(MinuteObserver); ok {
			return
		}
	}
	due, ok := p.queue.PeekDue()
	if !ok {
		return
	}
	if next := min(due, horizon) - 1; next > p.clock {
		p.clock = next
	}
}

func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func (p *Port) process(entry *queuedMovement) error {
	entry.Attempts++
	var err error
	switch m := entry.Movement.(type) {
	case *ShipMovement:
		if m.Direction() == Inbound {
			err = p.arrive(entry, m)
		} else {
			err = p.depart(m)
		}
	case *CargoMovement:
		if m.Direction() == Inbound {
			err = p.receiveCargo(m)
		} else {
			err = p.releaseCargo(m)
		}
	default:
		panic(fmt.Sprintf("process: unhandled movement type %T", entry.Movement))
	}
	if err != nil {
		return err
	}

	p.metrics.ProcessedMovements++
	logrus.Infof("[minute %06d] Processed %s", p.clock, entry.Movement.Encode())
	return p.notify(entry.Movement)
}

// arrive docks an inbound ship at the first free quay that accepts it.
func (p *Port) arrive(entry *queuedMovement, m *ShipMovement) error {
	ship := m.Ship()
	if q, ok := p.docked[ship.IMONumber]; ok && holds(q, ship.IMONumber) {
		return p.inconsistent(m, fmt.Errorf("ship %d is already at quay %d: %w", ship.IMONumber, q.ID(), ErrShipAlreadyDocked))
	}

	compatible := false
	for _, q := range p.quays {
		if !q.Accepts(ship) {
			continue
		}
		compatible = true
		if q.IsOccupied() {
			continue
		}
		if err := q.Dock(ship); err != nil {
			// the quay reported free a moment ago
			panic(fmt.Sprintf("arrive: %v", err))
		}
		p.docked[ship.IMONumber] = q
		p.metrics.ShipArrivals++
		p.metrics.TotalWaitMinutes += p.clock - m.Time()
		p.metrics.PeakQuaysOccupied = max(p.metrics.PeakQuaysOccupied, len(p.docked))
		if p.trace != nil {
			p.trace.RecordDocking(trace.DockingRecord{
				IMONumber: ship.IMONumber,
				QuayID:    q.ID(),
				Clock:     p.clock,
				Attempts:  entry.Attempts,
			})
		}
		return nil
	}

	return p.unservable(entry, m, compatible)
}

// unservable re-queues the entry, or abandons it when retrying cannot help
// or the retry budget is spent. Either way the condition is reported.
func (p *Port) unservable(entry *queuedMovement, m *ShipMovement, compatible bool) error {
	ship := m.Ship()
	p.metrics.UnservableAttempts++

	exhausted := p.config.MaxRetries > 0 && entry.Attempts > p.config.MaxRetries
	if !compatible || exhausted {
		reason := "retries exhausted"
		if !compatible {
			reason = "no quay can ever accept it"
		}
		p.metrics.AbandonedMovements++
		logrus.Warnf("[minute %06d] Abandoning %s after %d attempts: %s", p.clock, m.Encode(), entry.Attempts, reason)
		if p.trace != nil {
			p.trace.RecordUnservable(trace.UnservableRecord{
				IMONumber: ship.IMONumber,
				Clock:     p.clock,
				Attempt:   entry.Attempts,
				RetryAt:   -1,
				Abandoned: true,
			})
		}
		return &MovementError{
			Movement: m,
			Clock:    p.clock,
			Err:      fmt.Errorf("ship %d abandoned, %s: %w", ship.IMONumber, reason, ErrUnservableMovement),
		}
	}

	retryAt := p.clock + p.config.RetryDelay
	entry.Due = retryAt
	p.queue.push(entry)
	logrus.Warnf("[minute %06d] No free quay for %s, retrying at minute %d", p.clock, m.Encode(), retryAt)
	if p.trace != nil {
		p.trace.RecordUnservable(trace.UnservableRecord{
			IMONumber: ship.IMONumber,
			Clock:     p.clock,
			Attempt:   entry.Attempts,
			RetryAt:   retryAt,
		})
	}
	return &MovementError{
		Movement: m,
		Clock:    p.clock,
		Retrying: true,
		Err:      fmt.Errorf("no free compatible quay for ship %d: %w", ship.IMONumber, ErrUnservableMovement),
	}
}

func holds(q Quay, imoNumber int64) bool {
	held := q.Ship()
	return held != nil && held.IMONumber == imoNumber
}

// depart undocks an outbound ship from the quay holding it.
func (p *Port) depart(m *ShipMovement) error {
	ship := m.Ship()
	q, ok := p.docked[ship.IMONumber]
	if !ok {
		return p.inconsistent(m, fmt.Errorf("ship %d is not docked at any quay: %w", ship.IMONumber, ErrInconsistentDeparture))
	}
	// quays registered by the caller can still be changed through the caller's own reference
	if !holds(q, ship.IMONumber) {
		delete(p.docked, ship.IMONumber)
		return p.inconsistent(m, fmt.Errorf("quay %d no longer holds ship %d: %w", q.ID(), ship.IMONumber, ErrInconsistentDeparture))
	}
	if _, err := q.Undock(); err != nil {
		delete(p.docked, ship.IMONumber)
		return p.inconsistent(m, fmt.Errorf("undocking ship %d from quay %d: %w: %w", ship.IMONumber, q.ID(), ErrInconsistentDeparture, err))
	}
	delete(p.docked, ship.IMONumber)
	p.metrics.ShipDepartures++
	if p.trace != nil {
		p.trace.RecordDeparture(trace.DepartureRecord{
			IMONumber: ship.IMONumber,
			QuayID:    q.ID(),
			Clock:     p.clock,
		})
	}
	return nil
}

// receiveCargo stores an inbound cargo batch. The batch is rejected whole
// if any piece is already stored.
func (p *Port) receiveCargo(m *CargoMovement) error {
	for _, c := range m.cargo {
		if _, ok := p.stored[c.ID]; ok {
			return p.inconsistent(m, fmt.Errorf("cargo %d: %w", c.ID, ErrCargoAlreadyStored))
		}
	}
	for _, c := range m.cargo {
		p.stored[c.ID] = c
	}
	p.metrics.CargoIn += len(m.cargo)
	return nil
}

// releaseCargo removes an outbound cargo batch from storage. The batch is
// rejected whole if any piece is missing.
func (p *Port) releaseCargo(m *CargoMovement) error {
	for _, c := range m.cargo {
		if _, ok := p.stored[c.ID]; !ok {
			return p.inconsistent(m, fmt.Errorf("cargo %d is not stored at the port: %w", c.ID, ErrInconsistentDeparture))
		}
	}
	for _, c := range m.cargo {
		delete(p.stored, c.ID)
	}
	p.metrics.CargoOut += len(m.cargo)
	return nil
}

func (p *Port) inconsistent(m Movement, err error) error {
	p.metrics.Inconsistencies++
	logrus.Warnf("[minute %06d] Inconsistent movement %s: %v", p.clock, m.Encode(), err)
	if p.trace != nil {
		p.trace.RecordInconsistency(trace.InconsistencyRecord{
			Movement: m.Encode(),
			Clock:    p.clock,
			Reason:   err.Error(),
		})
	}
	return &MovementError{Movement: m, Clock: p.clock, Err: err}
}

// notify shows the processed movement to every evaluator in registration
// order. A failing evaluator is reported and skipped; the rest still run.
func (p *Port) notify(m Movement) error {
	var errs []error
	for _, e := range p.evaluators {
		err := observe(e, m)
		if err == nil {
			continue
		}
		errs = append(errs, &MovementError{
			Movement: m,
			Clock:    p.clock,
			Err:      p.evaluatorFailed(e, m.Encode(), err),
		})
	}
	return errors.Join(errs...)
}

// evaluatorFailed counts, logs and traces an evaluator failure. movement is
// empty when the failure happened in the minute hook.
func (p *Port) evaluatorFailed(e StatisticsEvaluator, movement string, err error) error {
	p.metrics.EvaluatorFailures++
	where := movement
	if where == "" {
		where = "minute tick"
	}
	logrus.Warnf("[minute %06d] Evaluator %s failed on %s: %v", p.clock, e.Name(), where, err)
	if p.trace != nil {
		p.trace.RecordEvaluatorFailure(trace.EvaluatorFailureRecord{
			Evaluator: e.Name(),
			Movement:  movement,
			Clock:     p.clock,
			Reason:    err.Error(),
		})
	}
	if movement == "" {
		return fmt.Errorf("minute %d: evaluator %s: %w: %w", p.clock, e.Name(), ErrEvaluatorFailed, err)
	}
	return fmt.Errorf("evaluator %s: %w: %w", e.Name(), ErrEvaluatorFailed, err)
}

func observe(e StatisticsEvaluator, m Movement) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.OnProcessMovement(m)
}

func observeMinute(mo MinuteObserver, now int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	mo.OnElapseMinute(now)
	return nil
}

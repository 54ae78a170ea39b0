package sim

import "errors"

// Sentinel errors returned by the port simulation. Callers match them with
// errors.Is; the concrete error always carries the offending values.
var (
	// ErrInvalidArgument is returned when an entity is constructed with an
	// out-of-range value (negative time, negative capacity, bad IMO number).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrQuayOccupied is returned when docking at a quay that already holds a ship.
	ErrQuayOccupied = errors.New("quay already occupied")

	// ErrQuayEmpty is returned when undocking from a quay that holds no ship.
	ErrQuayEmpty = errors.New("quay not occupied")

	// ErrDuplicateQuay is returned when a quay id is registered twice on a port.
	ErrDuplicateQuay = errors.New("duplicate quay id")

	// ErrUnservableMovement is reported when no compatible free quay exists
	// for an inbound ship.
	ErrUnservableMovement = errors.New("unservable movement")

	// ErrInconsistentDeparture is reported when an outbound movement references
	// a ship or cargo that is not currently at the port.
	ErrInconsistentDeparture = errors.New("inconsistent departure")

	// ErrShipAlreadyDocked is reported when an inbound movement names a ship
	// that is already docked at one of the port's quays.
	ErrShipAlreadyDocked = errors.New("ship already docked")

	// ErrCargoAlreadyStored is reported when inbound cargo is already in port storage.
	ErrCargoAlreadyStored = errors.New("cargo already stored")

	// ErrEvaluatorFailed wraps an error or panic raised by a statistics evaluator.
	ErrEvaluatorFailed = errors.New("evaluator failed")
)

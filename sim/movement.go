package sim

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction is the direction of a movement relative to the port.
type Direction int

const (
	Inbound Direction = iota
	Outbound
)

func (d Direction) String() string {
	switch d {
	case Inbound:
		return "INBOUND"
	case Outbound:
		return "OUTBOUND"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Movement is a scheduled arrival or departure of a ship or a cargo batch.
// The set of implementations is closed: *ShipMovement and *CargoMovement.
// Movements are immutable once constructed.
type Movement interface {
	// Time is the simulated minute at which the movement should be actioned.
	Time() int64
	Direction() Direction
	// Kind is the movement class name used in encoded forms.
	Kind() string
	Encode() string
	String() string

	movement()
}

// baseMovement holds the scheduling data shared by every movement variant.
type baseMovement struct {
	time      int64
	direction Direction
}

func newBaseMovement(time int64, direction Direction) (baseMovement, error) {
	if time < 0 {
		return baseMovement{}, fmt.Errorf("time must be greater than or equal to 0: %d: %w", time, ErrInvalidArgument)
	}
	if direction != Inbound && direction != Outbound {
		return baseMovement{}, fmt.Errorf("unknown direction %d: %w", int(direction), ErrInvalidArgument)
	}
	return baseMovement{time: time, direction: direction}, nil
}

func (m baseMovement) Time() int64 {
	return m.time
}

func (m baseMovement) Direction() Direction {
	return m.direction
}

func (m baseMovement) movement() {}

func (m baseMovement) encode(kind string) string {
	return fmt.Sprintf("%s:%d:%s", kind, m.time, m.direction)
}

func (m baseMovement) describe(kind string) string {
	return fmt.Sprintf("%s %s to occur at %d", m.direction, kind, m.time)
}

// ShipMovement moves a ship into or out of the port.
type ShipMovement struct {
	baseMovement
	ship *Ship
}

// NewShipMovement constructs a ShipMovement. Fails when time < 0.
// Panics if ship is nil.
func NewShipMovement(time int64, direction Direction, ship *Ship) (*ShipMovement, error) {
	if ship == nil {
		panic("NewShipMovement: ship must not be nil")
	}
	base, err := newBaseMovement(time, direction)
	if err != nil {
		return nil, err
	}
	return &ShipMovement{baseMovement: base, ship: ship}, nil
}

// Ship returns the ship involved in the movement.
func (m *ShipMovement) Ship() *Ship {
	return m.ship
}

func (m *ShipMovement) Kind() string {
	return "ShipMovement"
}

// Encode returns ShipMovement:time:DIRECTION:imoNumber.
func (m *ShipMovement) Encode() string {
	return fmt.Sprintf("%s:%d", m.encode(m.Kind()), m.ship.IMONumber)
}

func (m *ShipMovement) String() string {
	return fmt.Sprintf("%s involving the ship %s", m.describe(m.Kind()), m.ship.Name)
}

// CargoMovement moves one or more pieces of cargo into or out of the port by land.
type CargoMovement struct {
	baseMovement
	cargo []*Cargo
}

// NewCargoMovement constructs a CargoMovement. Fails when time < 0 or the
// batch is empty. The cargo slice is copied.
func NewCargoMovement(time int64, direction Direction, cargo []*Cargo) (*CargoMovement, error) {
	base, err := newBaseMovement(time, direction)
	if err != nil {
		return nil, err
	}
	if len(cargo) == 0 {
		return nil, fmt.Errorf("cargo movement requires at least one cargo: %w", ErrInvalidArgument)
	}
	for i, c := range cargo {
		if c == nil {
			return nil, fmt.Errorf("cargo[%d] is nil: %w", i, ErrInvalidArgument)
		}
	}
	batch := make([]*Cargo, len(cargo))
	copy(batch, cargo)
	return &CargoMovement{baseMovement: base, cargo: batch}, nil
}

// Cargo returns a copy of the cargo batch.
func (m *CargoMovement) Cargo() []*Cargo {
	out := make([]*Cargo, len(m.cargo))
	copy(out, m.cargo)
	return out
}

func (m *CargoMovement) Kind() string {
	return "CargoMovement"
}

// Encode returns CargoMovement:time:DIRECTION:count:id1,id2,...
func (m *CargoMovement) Encode() string {
	ids := make([]string, len(m.cargo))
	for i, c := range m.cargo {
		ids[i] = strconv.Itoa(c.ID)
	}
	return fmt.Sprintf("%s:%d:%s", m.encode(m.Kind()), len(m.cargo), strings.Join(ids, ","))
}

func (m *CargoMovement) String() string {
	noun := "cargo"
	if len(m.cargo) != 1 {
		noun = "pieces of cargo"
	}
	return fmt.Sprintf("%s involving %d %s", m.describe(m.Kind()), len(m.cargo), noun)
}

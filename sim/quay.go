package sim

import (
	"fmt"
	"strconv"
)

// QuayReader is the read-only face of a quay handed out by the port.
type QuayReader interface {
	ID() int
	// Ship returns the docked ship, or nil if the quay is empty.
	Ship() *Ship
	IsOccupied() bool
	// Accepts reports whether the ship is of a compatible kind and fits
	// within the quay's capacity. Occupancy is not considered.
	Accepts(ship *Ship) bool
	// Capacity is the variant-specific maximum (tonnes or containers).
	Capacity() int
	Kind() string
	Encode() string
	String() string
}

// Quay is a berth that holds at most one ship at a time.
// The set of implementations is closed: *BulkQuay and *ContainerQuay.
type Quay interface {
	QuayReader
	Dock(ship *Ship) error
	Undock() (*Ship, error)
	Equal(other Quay) bool

	quay()
}

// quayReader hides the mutating methods of a quay, including from type assertions.
type quayReader struct {
	q Quay
}

func readOnly(q Quay) QuayReader {
	return quayReader{q: q}
}

func (r quayReader) ID() int                 { return r.q.ID() }
func (r quayReader) Ship() *Ship             { return r.q.Ship() }
func (r quayReader) IsOccupied() bool        { return r.q.IsOccupied() }
func (r quayReader) Accepts(ship *Ship) bool { return r.q.Accepts(ship) }
func (r quayReader) Capacity() int           { return r.q.Capacity() }
func (r quayReader) Kind() string            { return r.q.Kind() }
func (r quayReader) Encode() string          { return r.q.Encode() }
func (r quayReader) String() string          { return r.q.String() }

type baseQuay struct {
	id   int
	ship *Ship
}

func newBaseQuay(id int) (baseQuay, error) {
	if id < 0 {
		return baseQuay{}, fmt.Errorf("quay id must be greater than or equal to 0: %d: %w", id, ErrInvalidArgument)
	}
	return baseQuay{id: id}, nil
}

func (q *baseQuay) ID() int {
	return q.id
}

func (q *baseQuay) Ship() *Ship {
	return q.ship
}

func (q *baseQuay) IsOccupied() bool {
	return q.ship != nil
}

func (q *baseQuay) Dock(ship *Ship) error {
	if ship == nil {
		panic("Dock: ship must not be nil")
	}
	if q.ship != nil {
		return fmt.Errorf("quay %d holds ship %d, cannot dock %d: %w",
			q.id, q.ship.IMONumber, ship.IMONumber, ErrQuayOccupied)
	}
	q.ship = ship
	return nil
}

func (q *baseQuay) Undock() (*Ship, error) {
	if q.ship == nil {
		return nil, fmt.Errorf("quay %d: %w", q.id, ErrQuayEmpty)
	}
	ship := q.ship
	q.ship = nil
	return ship, nil
}

func (q *baseQuay) quay() {}

func (q *baseQuay) imoOrNone() string {
	if q.ship == nil {
		return "None"
	}
	return strconv.FormatInt(q.ship.IMONumber, 10)
}

func encodeQuay(q Quay, b *baseQuay) string {
	return fmt.Sprintf("%s:%d:%s:%d", q.Kind(), b.id, b.imoOrNone(), q.Capacity())
}

func describeQuay(q Quay, b *baseQuay) string {
	return fmt.Sprintf("%s %d [Ship: %s] - %d", q.Kind(), b.id, b.imoOrNone(), q.Capacity())
}

func equalQuays(q, other Quay) bool {
	if other == nil {
		return false
	}
	return q.Kind() == other.Kind() &&
		q.ID() == other.ID() &&
		q.IsOccupied() == other.IsOccupied() &&
		q.Capacity() == other.Capacity()
}

// BulkQuay services bulk carriers up to a maximum tonnage.
type BulkQuay struct {
	baseQuay
	maxTonnage int
}

// NewBulkQuay fails if id or maxTonnage is negative.
func NewBulkQuay(id, maxTonnage int) (*BulkQuay, error) {
	base, err := newBaseQuay(id)
	if err != nil {
		return nil, err
	}
	if maxTonnage < 0 {
		return nil, fmt.Errorf("maxTonnage must be greater than or equal to 0: %d: %w", maxTonnage, ErrInvalidArgument)
	}
	return &BulkQuay{baseQuay: base, maxTonnage: maxTonnage}, nil
}

func (q *BulkQuay) MaxTonnage() int {
	return q.maxTonnage
}

func (q *BulkQuay) Capacity() int {
	return q.maxTonnage
}

func (q *BulkQuay) Kind() string {
	return "BulkQuay"
}

func (q *BulkQuay) Accepts(ship *Ship) bool {
	return ship != nil && ship.Kind == BulkCarrier && ship.Capacity <= q.maxTonnage
}

func (q *BulkQuay) Equal(other Quay) bool {
	return equalQuays(q, other)
}

// Encode returns BulkQuay:id:imoNumber|None:maxTonnage.
func (q *BulkQuay) Encode() string {
	return encodeQuay(q, &q.baseQuay)
}

func (q *BulkQuay) String() string {
	return describeQuay(q, &q.baseQuay)
}

// ContainerQuay services container ships up to a maximum container count.
type ContainerQuay struct {
	baseQuay
	maxContainers int
}

// NewContainerQuay fails if id or maxContainers is negative.
func NewContainerQuay(id, maxContainers int) (*ContainerQuay, error) {
	base, err := newBaseQuay(id)
	if err != nil {
		return nil, err
	}
	if maxContainers < 0 {
		return nil, fmt.Errorf("maxContainers must be greater than or equal to 0: %d: %w", maxContainers, ErrInvalidArgument)
	}
	return &ContainerQuay{baseQuay: base, maxContainers: maxContainers}, nil
}

func (q *ContainerQuay) MaxContainers() int {
	return q.maxContainers
}

func (q *ContainerQuay) Capacity() int {
	return q.maxContainers
}

func (q *ContainerQuay) Kind() string {
	return "ContainerQuay"
}

func (q *ContainerQuay) Accepts(ship *Ship) bool {
	return ship != nil && ship.Kind == ContainerShip && ship.Capacity <= q.maxContainers
}

func (q *ContainerQuay) Equal(other Quay) bool {
	return equalQuays(q, other)
}

// Encode returns ContainerQuay:id:imoNumber|None:maxContainers.
func (q *ContainerQuay) Encode() string {
	return encodeQuay(q, &q.baseQuay)
}

func (q *ContainerQuay) String() string {
	return describeQuay(q, &q.baseQuay)
}

package sim

import "fmt"

// ShipKind distinguishes the vessel categories a quay may accept.
type ShipKind int

const (
	// BulkCarrier carries loose cargo measured in tonnes.
	BulkCarrier ShipKind = iota
	// ContainerShip carries cargo measured in containers.
	ContainerShip
)

func (k ShipKind) String() string {
	switch k {
	case BulkCarrier:
		return "BulkCarrier"
	case ContainerShip:
		return "ContainerShip"
	default:
		return fmt.Sprintf("ShipKind(%d)", int(k))
	}
}

const (
	minIMONumber = 1_000_000
	maxIMONumber = 9_999_999
)

// Ship is a vessel visiting the port. Ships are referenced by movements and
// quays but owned by neither; a ship outlives every movement that names it.
//
// A Ship must not be modified after NewShip returns. Quay matching checks Kind
// and Capacity once, at docking; the port identifies ships by IMONumber.
type Ship struct {
	IMONumber  int64
	Name       string
	OriginFlag string
	Kind       ShipKind
	// Capacity is tonnage for bulk carriers and container count for container ships.
	Capacity int
}

// NewShip validates and constructs a Ship.
// The IMO number must have exactly seven digits and capacity must be non-negative.
func NewShip(imoNumber int64, name, originFlag string, kind ShipKind, capacity int) (*Ship, error) {
	if imoNumber < minIMONumber || imoNumber > maxIMONumber {
		return nil, fmt.Errorf("IMO number must be 7 digits, got %d: %w", imoNumber, ErrInvalidArgument)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("ship capacity must be greater than or equal to 0, got %d: %w", capacity, ErrInvalidArgument)
	}
	if kind != BulkCarrier && kind != ContainerShip {
		return nil, fmt.Errorf("unknown ship kind %d: %w", int(kind), ErrInvalidArgument)
	}
	return &Ship{
		IMONumber:  imoNumber,
		Name:       name,
		OriginFlag: originFlag,
		Kind:       kind,
		Capacity:   capacity,
	}, nil
}

func (s *Ship) String() string {
	return fmt.Sprintf("%s %s from %s [%d]", s.Kind, s.Name, s.OriginFlag, s.IMONumber)
}

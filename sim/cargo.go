package sim

import "fmt"

// CargoKind separates bulk cargo from containerised cargo.
type CargoKind int

const (
	BulkCargo CargoKind = iota
	Container
)

func (k CargoKind) String() string {
	switch k {
	case BulkCargo:
		return "BulkCargo"
	case Container:
		return "Container"
	default:
		return fmt.Sprintf("CargoKind(%d)", int(k))
	}
}

// Cargo is a unit of goods moved through the port by land or sea.
type Cargo struct {
	ID          int
	Destination string
	Kind        CargoKind
	// Type is the commodity (e.g. GRAIN, MINERALS) or container type (e.g. STANDARD, REEFER).
	Type string
	// Tonnage is only meaningful for bulk cargo.
	Tonnage int
}

// NewCargo validates and constructs a Cargo.
func NewCargo(id int, destination string, kind CargoKind, cargoType string, tonnage int) (*Cargo, error) {
	if id < 0 {
		return nil, fmt.Errorf("cargo id must be greater than or equal to 0, got %d: %w", id, ErrInvalidArgument)
	}
	if tonnage < 0 {
		return nil, fmt.Errorf("cargo tonnage must be greater than or equal to 0, got %d: %w", tonnage, ErrInvalidArgument)
	}
	if kind != BulkCargo && kind != Container {
		return nil, fmt.Errorf("unknown cargo kind %d: %w", int(kind), ErrInvalidArgument)
	}
	return &Cargo{
		ID:          id,
		Destination: destination,
		Kind:        kind,
		Type:        cargoType,
		Tonnage:     tonnage,
	}, nil
}

func (c *Cargo) String() string {
	return fmt.Sprintf("%s %d to %s [%s]", c.Kind, c.ID, c.Destination, c.Type)
}

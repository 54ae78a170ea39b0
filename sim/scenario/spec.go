// Package scenario loads port scenarios from YAML and turns them into a
// ready-to-run sim.Port.
package scenario

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/portsim/portsim/sim"
)

// ScenarioSpec is the top-level scenario file.
type ScenarioSpec struct {
	Version    string         `yaml:"version"`
	Seed       int64          `yaml:"seed"`
	Horizon    int64          `yaml:"horizon"`
	Port       PortSpec       `yaml:"port,omitempty"`
	Quays      []QuaySpec     `yaml:"quays"`
	Ships      []ShipSpec     `yaml:"ships,omitempty"`
	Cargo      []CargoSpec    `yaml:"cargo,omitempty"`
	Movements  []MovementSpec `yaml:"movements,omitempty"`
	Evaluators []string       `yaml:"evaluators,omitempty"`
	Arrivals   *ArrivalsSpec  `yaml:"arrivals,omitempty"`
}

// PortSpec overrides the port's retry policy. Zero values keep the defaults.
type PortSpec struct {
	RetryDelay int64 `yaml:"retry_delay,omitempty"`
	MaxRetries int   `yaml:"max_retries,omitempty"` // 0 = retry forever
}

// QuaySpec declares a quay. Kind is "bulk" or "container"; Capacity is tonnes
// for bulk quays and containers for container quays.
type QuaySpec struct {
	ID       int    `yaml:"id"`
	Kind     string `yaml:"kind"`
	Capacity int    `yaml:"capacity"`
}

// ShipSpec declares a ship. Kind is "bulk_carrier" or "container_ship".
type ShipSpec struct {
	IMO      int64  `yaml:"imo"`
	Name     string `yaml:"name"`
	Flag     string `yaml:"flag"`
	Kind     string `yaml:"kind"`
	Capacity int    `yaml:"capacity"`
}

// CargoSpec declares a piece of cargo. Kind is "bulk" or "container".
type CargoSpec struct {
	ID          int    `yaml:"id"`
	Destination string `yaml:"destination"`
	Kind        string `yaml:"kind"`
	Type        string `yaml:"type"`
	Tonnage     int    `yaml:"tonnage,omitempty"`
}

// MovementSpec schedules a movement of either one declared ship or a batch
// of declared cargo, never both.
type MovementSpec struct {
	Time      int64  `yaml:"time"`
	Direction string `yaml:"direction"`
	Ship      int64  `yaml:"ship,omitempty"`
	Cargo     []int  `yaml:"cargo,omitempty"`
}

// ArrivalsSpec synthesises random ship visits: each generated ship arrives
// after an exponential gap and leaves after a uniform stay.
type ArrivalsSpec struct {
	Count            int      `yaml:"count"`
	MeanInterarrival float64  `yaml:"mean_interarrival"` // minutes
	MinStay          int64    `yaml:"min_stay"`
	MaxStay          int64    `yaml:"max_stay"`
	BulkFraction     float64  `yaml:"bulk_fraction"`
	MaxTonnage       int      `yaml:"max_tonnage"`
	MaxContainers    int      `yaml:"max_containers"`
	Flags            []string `yaml:"flags"`
}

// Valid value registries.
var (
	validVersions   = map[string]bool{"": true, "1": true}
	validQuayKinds  = map[string]bool{"bulk": true, "container": true}
	validShipKinds  = map[string]sim.ShipKind{"bulk_carrier": sim.BulkCarrier, "container_ship": sim.ContainerShip}
	validCargoKinds = map[string]sim.CargoKind{"bulk": sim.BulkCargo, "container": sim.Container}
	validDirections = map[string]sim.Direction{"inbound": sim.Inbound, "outbound": sim.Outbound}
)

// LoadScenarioSpec reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScenarioSpec(path string) (*ScenarioSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenarioSpec(data)
}

// ParseScenarioSpec parses scenario YAML held in memory.
func ParseScenarioSpec(data []byte) (*ScenarioSpec, error) {
	var spec ScenarioSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &spec, nil
}

// Validate checks field ranges and that every movement references a
// declared ship or declared cargo.
func (s *ScenarioSpec) Validate() error {
	if !validVersions[s.Version] {
		return fmt.Errorf("unknown version %q; valid: 1", s.Version)
	}
	if s.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", s.Horizon)
	}
	if s.Port.RetryDelay < 0 {
		return fmt.Errorf("port.retry_delay must be non-negative, got %d", s.Port.RetryDelay)
	}
	if s.Port.MaxRetries < 0 {
		return fmt.Errorf("port.max_retries must be non-negative, got %d", s.Port.MaxRetries)
	}
	if len(s.Quays) == 0 {
		return fmt.Errorf("at least one quay required")
	}

	quayIDs := make(map[int]bool, len(s.Quays))
	for i, q := range s.Quays {
		prefix := fmt.Sprintf("quays[%d]", i)
		if !validQuayKinds[q.Kind] {
			return fmt.Errorf("%s: unknown kind %q; valid: bulk, container", prefix, q.Kind)
		}
		if q.ID < 0 || q.Capacity < 0 {
			return fmt.Errorf("%s: id and capacity must be non-negative, got %d and %d", prefix, q.ID, q.Capacity)
		}
		if quayIDs[q.ID] {
			return fmt.Errorf("%s: duplicate quay id %d", prefix, q.ID)
		}
		quayIDs[q.ID] = true
	}

	ships := make(map[int64]bool, len(s.Ships))
	for i, sh := range s.Ships {
		prefix := fmt.Sprintf("ships[%d]", i)
		if _, ok := validShipKinds[sh.Kind]; !ok {
			return fmt.Errorf("%s: unknown kind %q; valid: bulk_carrier, container_ship", prefix, sh.Kind)
		}
		if ships[sh.IMO] {
			return fmt.Errorf("%s: duplicate imo %d", prefix, sh.IMO)
		}
		if s.Arrivals != nil && isGeneratedIMO(sh.IMO, s.Arrivals.Count) {
			return fmt.Errorf("%s: imo %d is reserved for generated arrivals", prefix, sh.IMO)
		}
		ships[sh.IMO] = true
	}

	cargo := make(map[int]bool, len(s.Cargo))
	for i, c := range s.Cargo {
		prefix := fmt.Sprintf("cargo[%d]", i)
		if _, ok := validCargoKinds[c.Kind]; !ok {
			return fmt.Errorf("%s: unknown kind %q; valid: bulk, container", prefix, c.Kind)
		}
		if cargo[c.ID] {
			return fmt.Errorf("%s: duplicate cargo id %d", prefix, c.ID)
		}
		cargo[c.ID] = true
	}

	for i, m := range s.Movements {
		if err := validateMovement(&m, i, ships, cargo); err != nil {
			return err
		}
	}

	for i, name := range s.Evaluators {
		if !sim.ValidEvaluators[name] {
			return fmt.Errorf("evaluators[%d]: unknown evaluator %q", i, name)
		}
	}

	if s.Arrivals != nil {
		if err := s.Arrivals.validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateMovement(m *MovementSpec, idx int, ships map[int64]bool, cargo map[int]bool) error {
	prefix := fmt.Sprintf("movements[%d]", idx)
	if m.Time < 0 {
		return fmt.Errorf("%s: time must be non-negative, got %d", prefix, m.Time)
	}
	if _, ok := validDirections[m.Direction]; !ok {
		return fmt.Errorf("%s: unknown direction %q; valid: inbound, outbound", prefix, m.Direction)
	}
	hasShip, hasCargo := m.Ship != 0, len(m.Cargo) > 0
	if hasShip == hasCargo {
		return fmt.Errorf("%s: exactly one of ship or cargo required", prefix)
	}
	if hasShip && !ships[m.Ship] {
		return fmt.Errorf("%s: unknown ship imo %d", prefix, m.Ship)
	}
	for _, id := range m.Cargo {
		if !cargo[id] {
			return fmt.Errorf("%s: unknown cargo id %d", prefix, id)
		}
	}
	return nil
}

func (a *ArrivalsSpec) validate() error {
	if a.Count < 0 || a.Count > maxGeneratedShips {
		return fmt.Errorf("arrivals.count must be in [0, %d], got %d", maxGeneratedShips, a.Count)
	}
	if math.IsNaN(a.MeanInterarrival) || math.IsInf(a.MeanInterarrival, 0) || a.MeanInterarrival <= 0 {
		return fmt.Errorf("arrivals.mean_interarrival must be a positive finite number, got %f", a.MeanInterarrival)
	}
	if a.MinStay < 1 || a.MaxStay < a.MinStay {
		return fmt.Errorf("arrivals: need 1 <= min_stay <= max_stay, got %d and %d", a.MinStay, a.MaxStay)
	}
	if math.IsNaN(a.BulkFraction) || a.BulkFraction < 0 || a.BulkFraction > 1 {
		return fmt.Errorf("arrivals.bulk_fraction must be in [0, 1], got %f", a.BulkFraction)
	}
	if a.MaxTonnage < 1 || a.MaxContainers < 1 {
		return fmt.Errorf("arrivals: max_tonnage and max_containers must be positive, got %d and %d", a.MaxTonnage, a.MaxContainers)
	}
	if len(a.Flags) == 0 {
		return fmt.Errorf("arrivals.flags: at least one flag required")
	}
	return nil
}

package scenario

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/portsim/portsim/sim"
)

// PortConfig returns the port configuration the scenario asks for, starting
// from base. Zero-valued scenario fields leave base untouched.
func (s *ScenarioSpec) PortConfig(base sim.PortConfig) sim.PortConfig {
	cfg := base
	if s.Port.RetryDelay > 0 {
		cfg.RetryDelay = s.Port.RetryDelay
	}
	if s.Port.MaxRetries > 0 {
		cfg.MaxRetries = s.Port.MaxRetries
	}
	return cfg
}

// Build validates the scenario and returns a Port with its quays added, its
// evaluators registered in declaration order, and every declared and
// generated movement scheduled. Declared movements are scheduled first.
func Build(spec *ScenarioSpec, cfg sim.PortConfig) (*sim.Port, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	port := sim.NewPort(cfg)

	for i, qs := range spec.Quays {
		q, err := newQuay(qs)
		if err != nil {
			return nil, fmt.Errorf("quays[%d]: %w", i, err)
		}
		if err := port.AddQuay(q); err != nil {
			return nil, fmt.Errorf("quays[%d]: %w", i, err)
		}
	}

	for _, name := range spec.Evaluators {
		e, err := sim.NewStatisticsEvaluator(name, port)
		if err != nil {
			return nil, err
		}
		port.RegisterEvaluator(e)
	}

	ships := make(map[int64]*sim.Ship, len(spec.Ships))
	for i, ss := range spec.Ships {
		ship, err := sim.NewShip(ss.IMO, ss.Name, ss.Flag, validShipKinds[ss.Kind], ss.Capacity)
		if err != nil {
			return nil, fmt.Errorf("ships[%d]: %w", i, err)
		}
		ships[ss.IMO] = ship
	}
	cargo := make(map[int]*sim.Cargo, len(spec.Cargo))
	for i, cs := range spec.Cargo {
		c, err := sim.NewCargo(cs.ID, cs.Destination, validCargoKinds[cs.Kind], cs.Type, cs.Tonnage)
		if err != nil {
			return nil, fmt.Errorf("cargo[%d]: %w", i, err)
		}
		cargo[cs.ID] = c
	}

	for i, ms := range spec.Movements {
		m, err := newMovement(ms, ships, cargo)
		if err != nil {
			return nil, fmt.Errorf("movements[%d]: %w", i, err)
		}
		if err := port.Schedule(m); err != nil {
			return nil, fmt.Errorf("movements[%d]: %w", i, err)
		}
	}

	if spec.Arrivals != nil {
		rng := sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed))
		generated, err := GenerateArrivals(spec.Arrivals, rng)
		if err != nil {
			return nil, err
		}
		for _, m := range generated {
			if err := port.Schedule(m); err != nil {
				return nil, err
			}
		}
		logrus.Infof("Generated %d movements from seed %d", len(generated), spec.Seed)
	}

	logrus.Infof("Built port: %d quays, %d evaluators, %d movements scheduled",
		len(spec.Quays), len(spec.Evaluators), port.Pending())
	return port, nil
}

func newQuay(qs QuaySpec) (sim.Quay, error) {
	switch qs.Kind {
	case "bulk":
		return sim.NewBulkQuay(qs.ID, qs.Capacity)
	case "container":
		return sim.NewContainerQuay(qs.ID, qs.Capacity)
	default:
		return nil, fmt.Errorf("unknown quay kind %q", qs.Kind)
	}
}

func newMovement(ms MovementSpec, ships map[int64]*sim.Ship, cargo map[int]*sim.Cargo) (sim.Movement, error) {
	dir := validDirections[ms.Direction]
	if ms.Ship != 0 {
		return sim.NewShipMovement(ms.Time, dir, ships[ms.Ship])
	}
	batch := make([]*sim.Cargo, len(ms.Cargo))
	for i, id := range ms.Cargo {
		batch[i] = cargo[id]
	}
	return sim.NewCargoMovement(ms.Time, dir, batch)
}

// Package sim provides the discrete-event simulation engine for a sea port.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - movement.go: ShipMovement and CargoMovement, the events that drive the simulation
//   - movement_queue.go: the pending-movement heap, ordered by due minute then insertion order
//   - port.go: the minute loop, first-fit quay matching, retries and evaluator notification
//
// # Architecture
//
// The sim package holds the domain types and the Port orchestrator; supporting
// code lives in sub-packages:
//   - sim/trace/: decision trace recording (dockings, retries, failures)
//   - sim/scenario/: YAML scenario loading, arrival generation, port construction
//   - sim/store/: SQLite-backed movement log evaluator
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Quay: a berth holding at most one ship (BulkQuay, ContainerQuay)
//   - Movement: a scheduled inbound or outbound event (closed set)
//   - StatisticsEvaluator: observes every resolved movement
//   - MinuteObserver: optionally sees every simulated minute
//
// # Time
//
// The clock counts whole simulated minutes from 0. Movements due in the same
// minute are processed in the order they were scheduled; a retried movement
// goes behind everything already queued for its new minute.
package sim

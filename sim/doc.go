// Package sim is the production layer of the job-shop digital twin.
//
// # Reading Guide
//
// Start with these files:
//   - workorder.go: products, work orders and their lifecycle
//   - routing.go: routing sheets and the rework pass
//   - production.go: ProductionSystem, which runs work orders through their routings
//
// # Architecture
//
// The plant runs on a cooperative discrete-event kernel. Sub-packages:
//   - sim/kernel/: virtual clock, processes, priority resources and stores
//   - sim/calendar/: shift calendar and working-time consumption
//   - sim/workload/: order batches, due dates and stochastic plant configs
//   - sim/scenario/: full runs, KPI reports and policy benchmarks
//   - sim/trace/: decision trace recording
//
// # Key Interfaces
//
//   - SchedulingPolicy: priority of a work order at a resource queue (lower first)
//
// Every stochastic draw comes from PartitionedRNG, so a seed reproduces a run
// event for event.
package sim

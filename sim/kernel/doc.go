// Package kernel is the discrete-event scheduling core of the job-shop simulator.
//
// An Environment owns a virtual clock (minutes, starting at 0) and a heap of timed
// events. Logical processes are spawned onto the environment and run cooperatively:
// exactly one process executes at any instant, and it only yields control at one of
// three suspension points:
//   - Process.Delay: wait for the clock to advance
//   - Resource.Acquire: wait for a unit of a finite-capacity resource
//   - Store.Get: wait for an item to be put into a FIFO store
//
// Each process is backed by a goroutine, but control is handed off explicitly
// between the dispatcher loop and the running process, so there is never more than
// one goroutine touching simulation state. Runs are fully deterministic: events at
// the same timestamp are ordered by (priority class, sequence ID), resource grants
// by (request priority, request sequence), and store deliveries by FIFO order.
//
// Same-instant resource requests are collected before any of them is granted: a
// grant decision is an event of the lowest class at the current timestamp, so every
// process that becomes runnable at that instant gets to enqueue its request first.
package kernel

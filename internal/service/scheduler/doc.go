// Package scheduler implements the windowed alarm state machine.
//
// A Scheduler owns the persisted configuration (write-through to a
// settings.Record) and the runtime status. The caller drives it: Init after
// boot or any configuration change, Tick once per wall-clock second, and
// Acknowledge when the user silences a ringing alarm. The scheduler has no
// internal locking; callers serialize access.
package scheduler

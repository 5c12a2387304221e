// Package alarm contains core domain types for the windowed alarm.
//
// It defines the runtime Status, the persisted Config with its repair and
// clamping rules, the daily Window with its membership test, and TimeOfDay,
// the structured "now" consumed by the scheduler.
package alarm

// Package control implements the alarmctl operations.
//
// Each Action performs one call against the alarm clock's control API and
// Run prints the resulting alarm state.
package control

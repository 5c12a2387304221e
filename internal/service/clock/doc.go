// Package clock runs the windowed alarm on the wall clock.
//
// Service is the caller of the scheduler: it reads the time source, evaluates
// every elapsed second, re-runs Init after configuration changes, owns the LED
// blink phase, drives the buzzer and serializes access from the control API
// and the acknowledgment button. Run wires storage, peripherals, metrics and
// the gRPC control server into the alarm-clock process.
package clock

// Package hardware drives the clock peripherals over periph.io GPIO.
//
// Indicator owns the LED blink phase, Buzzer sounds while the alarm rings and
// Button reports acknowledgment presses. Devices whose pin name is empty are
// left out, so the clock also runs on a machine without GPIO.
package hardware

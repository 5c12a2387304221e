package hardware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/oshokin/window-alarm/internal/config"
	domain "github.com/oshokin/window-alarm/internal/domain/alarm"
	"github.com/oshokin/window-alarm/internal/logger"
)

const (
	// buttonPollTimeout bounds one wait for an edge so cancellation is noticed.
	buttonPollTimeout = 100 * time.Millisecond
	// buttonHoldOff ignores contact bounce after an accepted press.
	buttonHoldOff = 200 * time.Millisecond
)

// ErrUnknownPin is returned when a configured pin name is not registered.
var ErrUnknownPin = errors.New("unknown gpio pin")

// Indicator is the two-colour alarm LED.
type Indicator struct {
	// red is lit while armed outside the window.
	red gpio.PinOut
	// green is lit inside the window and blinks while ringing.
	green gpio.PinOut
	// phase is the blink phase, toggled on every ringing refresh.
	phase bool
}

// NewIndicator creates an indicator; nil pins are skipped.
func NewIndicator(red, green gpio.PinOut) *Indicator {
	return &Indicator{
		red:   red,
		green: green,
	}
}

// Show drives the LEDs for state. While ringing the green LED alternates on
// every call, so the blink period equals the refresh period of the caller.
func (i *Indicator) Show(state domain.Indicator) error {
	red, green := gpio.Low, gpio.Low

	switch state {
	case domain.IndicatorRinging:
		green = gpio.Level(i.phase)
		i.phase = !i.phase
	case domain.IndicatorActive:
		green = gpio.High
	case domain.IndicatorInactive:
		red = gpio.High
	case domain.IndicatorNone:
	}

	if err := out(i.red, red); err != nil {
		return fmt.Errorf("drive red led: %w", err)
	}

	if err := out(i.green, green); err != nil {
		return fmt.Errorf("drive green led: %w", err)
	}

	return nil
}

// Buzzer is the audible alarm.
type Buzzer struct {
	pin gpio.PinOut
	on  bool
}

// NewBuzzer creates a buzzer; a nil pin makes it silent.
func NewBuzzer(pin gpio.PinOut) *Buzzer {
	return &Buzzer{
		pin: pin,
	}
}

// Set switches the buzzer, writing the pin only on change.
func (b *Buzzer) Set(on bool) error {
	if b.on == on {
		return nil
	}

	if err := out(b.pin, gpio.Level(on)); err != nil {
		return fmt.Errorf("drive buzzer: %w", err)
	}

	b.on = on

	return nil
}

// Button reports presses of the acknowledgment button.
type Button struct {
	pin gpio.PinIn
}

// NewButton creates a button on a pulled-up input; a press pulls it low.
func NewButton(pin gpio.PinIn) *Button {
	return &Button{
		pin: pin,
	}
}

// Watch sends a value to presses for every falling edge until ctx is done.
func (b *Button) Watch(ctx context.Context, presses chan<- struct{}) error {
	if b == nil || b.pin == nil {
		<-ctx.Done()

		return nil
	}

	if err := b.pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return fmt.Errorf("configure button: %w", err)
	}

	var lastPress time.Time

	for ctx.Err() == nil {
		if !b.pin.WaitForEdge(buttonPollTimeout) {
			continue
		}

		if time.Since(lastPress) < buttonHoldOff {
			continue
		}

		lastPress = time.Now()

		select {
		case presses <- struct{}{}:
		case <-ctx.Done():
		}
	}

	return nil
}

// Devices groups the peripherals of the clock.
type Devices struct {
	Indicator *Indicator
	Buzzer    *Buzzer
	Button    *Button
}

// Open initialises the GPIO host and resolves the configured pins. When no
// pin is configured the host is not touched and silent devices are returned.
func Open(ctx context.Context, pins config.Pins) (*Devices, error) {
	if pins == (config.Pins{}) {
		logger.Info(ctx, "No GPIO pins configured, peripherals disabled")

		return &Devices{
			Indicator: NewIndicator(nil, nil),
			Buzzer:    NewBuzzer(nil),
			Button:    NewButton(nil),
		}, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initialise gpio host: %w", err)
	}

	red, err := lookup(pins.Red)
	if err != nil {
		return nil, err
	}

	green, err := lookup(pins.Green)
	if err != nil {
		return nil, err
	}

	buzzer, err := lookup(pins.Buzzer)
	if err != nil {
		return nil, err
	}

	button, err := lookup(pins.Button)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "GPIO peripherals ready",
		"red", pins.Red,
		"green", pins.Green,
		"buzzer", pins.Buzzer,
		"button", pins.Button,
	)

	devices := &Devices{
		Indicator: NewIndicator(asOutput(red), asOutput(green)),
		Buzzer:    NewBuzzer(asOutput(buzzer)),
		Button:    NewButton(nil),
	}

	if button != nil {
		devices.Button = NewButton(button)
	}

	return devices, nil
}

// lookup resolves a pin by name; an empty name yields nil.
func lookup(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil //nolint:nilnil // An empty name means the device is absent.
	}

	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPin, name)
	}

	return p, nil
}

// asOutput keeps a nil interface nil when converting to gpio.PinOut.
func asOutput(p gpio.PinIO) gpio.PinOut {
	if p == nil {
		return nil
	}

	return p
}

// out writes l to pin, skipping absent pins.
func out(pin gpio.PinOut, l gpio.Level) error {
	if pin == nil {
		return nil
	}

	return pin.Out(l)
}

package alarm

import (
	"errors"
	"fmt"
	"time"
)

const (
	// MinutesPerDay is the length of the minute-of-day grid.
	MinutesPerDay = 24 * 60
	// MaxMinute is the last valid minute-of-day (23:59).
	MaxMinute = MinutesPerDay - 1
	// SecondsPerDay is the length of a wall-clock day in seconds.
	SecondsPerDay = MinutesPerDay * 60

	// MinInterval is the smallest interval accepted by the interval setter.
	MinInterval = 1
	// MaxInterval is the largest firing interval in minutes.
	MaxInterval = 180
	// DefaultInterval replaces an out-of-domain persisted interval.
	DefaultInterval = 60
)

// ErrInvalidMinute is returned when a clock string cannot be turned into a minute-of-day.
var ErrInvalidMinute = errors.New("invalid minute of day")

// Status is the runtime projection of the alarm.
type Status uint8

const (
	// StatusOff means the alarm is switched off.
	StatusOff Status = iota
	// StatusArmed means the alarm waits for its next firing minute.
	StatusArmed
	// StatusRinging means the alarm fired and waits for acknowledgment.
	StatusRinging
)

// String returns a lower-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusOff:
		return "off"
	case StatusArmed:
		return "armed"
	case StatusRinging:
		return "ringing"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Indicator is what the visual indicator should show for the current status.
type Indicator uint8

const (
	// IndicatorNone turns every light off.
	IndicatorNone Indicator = iota
	// IndicatorInactive means armed, but the current minute is outside the window.
	IndicatorInactive
	// IndicatorActive means armed and inside the window.
	IndicatorActive
	// IndicatorRinging means the alarm is ringing and the light blinks.
	IndicatorRinging
)

// String returns a lower-case name of the indicator state.
func (i Indicator) String() string {
	switch i {
	case IndicatorNone:
		return "none"
	case IndicatorInactive:
		return "inactive"
	case IndicatorActive:
		return "active"
	case IndicatorRinging:
		return "ringing"
	default:
		return fmt.Sprintf("indicator(%d)", uint8(i))
	}
}

// TimeOfDay is a wall-clock reading without a date.
type TimeOfDay struct {
	// Hour is in [0, 23].
	Hour int
	// Minute is in [0, 59].
	Minute int
	// Second is in [0, 59].
	Second int
}

// FromTime extracts the time of day from t in t's location.
func FromTime(t time.Time) TimeOfDay {
	hour, minute, second := t.Clock()

	return TimeOfDay{
		Hour:   hour,
		Minute: minute,
		Second: second,
	}
}

// FromSecondOfDay builds a time of day from seconds since midnight, wrapping
// values outside one day.
func FromSecondOfDay(second int) TimeOfDay {
	second %= SecondsPerDay
	if second < 0 {
		second += SecondsPerDay
	}

	return TimeOfDay{
		Hour:   second / 3600,
		Minute: second % 3600 / 60,
		Second: second % 60,
	}
}

// MinuteOfDay returns minutes elapsed since midnight.
func (t TimeOfDay) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

// SecondOfDay returns seconds elapsed since midnight.
func (t TimeOfDay) SecondOfDay() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// String renders the time as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Window is the daily active window in minutes after midnight.
// End is exclusive and may be smaller than Start when the window crosses midnight.
type Window struct {
	// Start is the first minute of the window.
	Start int
	// End is the first minute after the window.
	End int
}

// IsEmpty reports whether the window has zero width and therefore never alarms.
func (w Window) IsEmpty() bool {
	return w.Start == w.End
}

// Wraps reports whether the window crosses midnight.
func (w Window) Wraps() bool {
	return w.End < w.Start
}

// Contains reports whether minute lies inside the window.
func (w Window) Contains(minute int) bool {
	switch {
	case w.IsEmpty():
		return false
	case w.End > w.Start:
		return minute >= w.Start && minute < w.End
	default:
		return minute >= w.Start || minute < w.End
	}
}

// String renders the window as HH:MM-HH:MM.
func (w Window) String() string {
	return FormatMinute(w.Start) + "-" + FormatMinute(w.End)
}

// Config is the persisted alarm configuration.
type Config struct {
	// Enabled is the master on/off switch.
	Enabled bool
	// Window bounds the minutes in which the alarm may fire.
	Window Window
	// Interval is the number of minutes between firings inside the window.
	Interval int
}

// DefaultConfig returns the safe configuration used to repair storage.
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Window:   Window{Start: 0, End: 0},
		Interval: DefaultInterval,
	}
}

// IsValidMinute reports whether v is a minute-of-day.
func IsValidMinute(v int) bool {
	return v >= 0 && v <= MaxMinute
}

// IsValidInterval reports whether v may be used as a persisted interval.
func IsValidInterval(v int) bool {
	return v >= MinInterval && v <= MaxInterval
}

// ClampMinute coerces v into [0, MaxMinute].
func ClampMinute(v int) int {
	return max(0, min(v, MaxMinute))
}

// ClampInterval coerces v into [MinInterval, MaxInterval].
func ClampInterval(v int) int {
	return max(MinInterval, min(v, MaxInterval))
}

// NormalizeMinute reduces v modulo MinutesPerDay.
func NormalizeMinute(v int) int {
	v %= MinutesPerDay
	if v < 0 {
		v += MinutesPerDay
	}

	return v
}

// FormatMinute renders a minute-of-day as HH:MM.
func FormatMinute(minute int) string {
	minute = NormalizeMinute(minute)

	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ParseMinute converts an HH:MM string into a minute-of-day.
func ParseMinute(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMinute, s)
	}

	return t.Hour()*60 + t.Minute(), nil
}

// Snapshot is a consistent view of the configuration and the runtime state.
type Snapshot struct {
	// Config is the persisted configuration.
	Config Config
	// Status is the runtime status.
	Status Status
	// NextFireMinute is the minute-of-day of the next firing.
	NextFireMinute int
}

// ParseStatus converts a name produced by Status.String back into a Status.
func ParseStatus(s string) (Status, bool) {
	for _, status := range []Status{StatusOff, StatusArmed, StatusRinging} {
		if status.String() == s {
			return status, true
		}
	}

	return StatusOff, false
}

package scheduler

import (
	"context"
	"fmt"

	domain "github.com/oshokin/window-alarm/internal/domain/alarm"
	"github.com/oshokin/window-alarm/internal/logger"
	"github.com/oshokin/window-alarm/internal/repository/settings"
)

// Names of persisted fields as reported by Repaired.
const (
	FieldEnabled     = "enabled"
	FieldWindowStart = "window_start"
	FieldWindowEnd   = "window_end"
	FieldInterval    = "interval"
)

// Scheduler decides, second by second, whether the windowed alarm fires.
type Scheduler struct {
	// record is the durable home of the configuration.
	record *settings.Record
	// config mirrors the persisted configuration.
	config domain.Config
	// status is the runtime projection of config.Enabled.
	status domain.Status
	// nextFire is the minute-of-day of the next firing, always in [0, MaxMinute].
	nextFire int
	// repaired lists fields reset to defaults at construction.
	repaired []string
}

// New loads the configuration stored at base, repairs out-of-domain fields
// and persists every repair before the scheduler is returned.
func New(ctx context.Context, storage settings.Storage, base int) (*Scheduler, error) {
	record := settings.NewRecord(storage, base)

	raw, err := record.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load alarm configuration: %w", err)
	}

	s := &Scheduler{
		record: record,
	}

	if err = s.repair(ctx, raw); err != nil {
		return nil, err
	}

	s.status = domain.StatusOff
	if s.config.Enabled {
		s.status = domain.StatusArmed
	}

	s.nextFire = s.config.Window.Start

	return s, nil
}

// repair converts raw values into the configuration, resetting and persisting
// every value that lies outside its domain.
func (s *Scheduler) repair(ctx context.Context, raw settings.Raw) error {
	defaults := domain.DefaultConfig()

	if raw.Enabled > 1 {
		if err := s.record.SaveEnabled(ctx, defaults.Enabled); err != nil {
			return fmt.Errorf("repair %s: %w", FieldEnabled, err)
		}

		s.noteRepair(ctx, FieldEnabled, int(raw.Enabled), boolToInt(defaults.Enabled))

		raw.Enabled = uint8(boolToInt(defaults.Enabled))
	}

	if !domain.IsValidMinute(int(raw.WindowStart)) {
		if err := s.record.SaveWindowStart(ctx, uint16(defaults.Window.Start)); err != nil {
			return fmt.Errorf("repair %s: %w", FieldWindowStart, err)
		}

		s.noteRepair(ctx, FieldWindowStart, int(raw.WindowStart), defaults.Window.Start)

		raw.WindowStart = uint16(defaults.Window.Start)
	}

	if !domain.IsValidMinute(int(raw.WindowEnd)) {
		if err := s.record.SaveWindowEnd(ctx, uint16(defaults.Window.End)); err != nil {
			return fmt.Errorf("repair %s: %w", FieldWindowEnd, err)
		}

		s.noteRepair(ctx, FieldWindowEnd, int(raw.WindowEnd), defaults.Window.End)

		raw.WindowEnd = uint16(defaults.Window.End)
	}

	if !domain.IsValidInterval(int(raw.Interval)) {
		if err := s.record.SaveInterval(ctx, uint16(defaults.Interval)); err != nil {
			return fmt.Errorf("repair %s: %w", FieldInterval, err)
		}

		s.noteRepair(ctx, FieldInterval, int(raw.Interval), defaults.Interval)

		raw.Interval = uint16(defaults.Interval)
	}

	s.config = domain.Config{
		Enabled: raw.Enabled == 1,
		Window: domain.Window{
			Start: int(raw.WindowStart),
			End:   int(raw.WindowEnd),
		},
		Interval: int(raw.Interval),
	}

	return nil
}

func (s *Scheduler) noteRepair(ctx context.Context, field string, found, replacement int) {
	s.repaired = append(s.repaired, field)

	logger.WarnKV(ctx, "Persisted alarm field out of domain, reset to default",
		"field", field,
		"found", found,
		"default", replacement,
	)
}

// Repaired returns the fields that were reset to defaults at construction.
func (s *Scheduler) Repaired() []string {
	return append([]string(nil), s.repaired...)
}

// Init computes the first firing minute not in the past of now. Candidates
// lie on the grid Start + k*Interval; if the first candidate is outside the
// window, the schedule falls back to the window start.
func (s *Scheduler) Init(now domain.TimeOfDay) {
	var (
		nowSeconds = now.SecondOfDay()
		x          = s.config.Window.Start
	)

	for x*60 < nowSeconds {
		x += s.config.Interval
	}

	x = domain.NormalizeMinute(x)
	if !s.InWindow(x) {
		x = s.config.Window.Start
	}

	s.nextFire = x
}

// Tick evaluates one second of wall-clock time and reports whether the alarm
// is ringing. A firing minute outside the window never fires, so a zero-width
// window stays silent. Callers should run Init after changing the window: a
// next firing minute left outside the new window is skipped once, without
// ringing, and replaced by the window start.
func (s *Scheduler) Tick(now domain.TimeOfDay) bool {
	if s.status != domain.StatusArmed || now.SecondOfDay() != s.nextFire*60 {
		return s.status == domain.StatusRinging
	}

	if !s.InWindow(s.nextFire) {
		s.nextFire = s.config.Window.Start

		return false
	}

	s.status = domain.StatusRinging

	s.nextFire = domain.NormalizeMinute(s.nextFire + s.config.Interval)
	if !s.InWindow(s.nextFire) {
		s.nextFire = s.config.Window.Start
	}

	return true
}

// Acknowledge silences a ringing alarm. It reports whether the status changed.
func (s *Scheduler) Acknowledge() bool {
	if s.status != domain.StatusRinging {
		return false
	}

	s.status = domain.StatusArmed

	return true
}

// InWindow reports whether minute lies inside the configured window.
func (s *Scheduler) InWindow(minute int) bool {
	return s.config.Window.Contains(minute)
}

// Indicator maps the status and the window membership of minute to what the
// visual indicator should show.
func (s *Scheduler) Indicator(minute int) domain.Indicator {
	switch {
	case s.status == domain.StatusRinging:
		return domain.IndicatorRinging
	case s.status == domain.StatusOff:
		return domain.IndicatorNone
	case s.InWindow(minute):
		return domain.IndicatorActive
	default:
		return domain.IndicatorInactive
	}
}

// Status returns the runtime status.
func (s *Scheduler) Status() domain.Status {
	return s.status
}

// NextFireMinute returns the minute-of-day of the next firing.
func (s *Scheduler) NextFireMinute() int {
	return s.nextFire
}

// Config returns a copy of the current configuration.
func (s *Scheduler) Config() domain.Config {
	return s.config
}

// Enabled returns the persisted master switch.
func (s *Scheduler) Enabled() bool {
	return s.config.Enabled
}

// WindowStart returns the first minute of the window.
func (s *Scheduler) WindowStart() int {
	return s.config.Window.Start
}

// WindowEnd returns the end minute of the window.
func (s *Scheduler) WindowEnd() int {
	return s.config.Window.End
}

// Interval returns the firing interval in minutes.
func (s *Scheduler) Interval() int {
	return s.config.Interval
}

// SetEnabled persists the master switch. Switching off forces the status to
// Off; switching on arms the alarm, but the next firing minute is computed
// only by the following Init.
func (s *Scheduler) SetEnabled(ctx context.Context, enabled bool) error {
	if err := s.record.SaveEnabled(ctx, enabled); err != nil {
		return fmt.Errorf("set enabled: %w", err)
	}

	s.config.Enabled = enabled

	s.status = domain.StatusOff
	if enabled {
		s.status = domain.StatusArmed
	}

	return nil
}

// SetWindowStart persists the first minute of the window, clamped to a valid minute.
func (s *Scheduler) SetWindowStart(ctx context.Context, minute int) error {
	minute = domain.ClampMinute(minute)

	if err := s.record.SaveWindowStart(ctx, uint16(minute)); err != nil {
		return fmt.Errorf("set window start: %w", err)
	}

	s.config.Window.Start = minute

	return nil
}

// SetWindowEnd persists the end minute of the window, clamped to a valid minute.
func (s *Scheduler) SetWindowEnd(ctx context.Context, minute int) error {
	minute = domain.ClampMinute(minute)

	if err := s.record.SaveWindowEnd(ctx, uint16(minute)); err != nil {
		return fmt.Errorf("set window end: %w", err)
	}

	s.config.Window.End = minute

	return nil
}

// SetInterval persists the firing interval. Out-of-range values are clamped
// into [MinInterval, MaxInterval] rather than rejected.
func (s *Scheduler) SetInterval(ctx context.Context, minutes int) error {
	minutes = domain.ClampInterval(minutes)

	if err := s.record.SaveInterval(ctx, uint16(minutes)); err != nil {
		return fmt.Errorf("set interval: %w", err)
	}

	s.config.Interval = minutes

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

// Snapshot returns the configuration together with the runtime state.
func (s *Scheduler) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Config:         s.config,
		Status:         s.status,
		NextFireMinute: s.nextFire,
	}
}

package clock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/oshokin/window-alarm/internal/domain/alarm"
	"github.com/oshokin/window-alarm/internal/logger"
	"github.com/oshokin/window-alarm/internal/service/scheduler"
)

// maxCatchUp is the largest gap of skipped seconds evaluated one by one.
// A larger gap, or a backward step, is treated as a clock jump.
const maxCatchUp = 5 * time.Second

// wallGap returns how many local wall-clock seconds lie between last and
// current. It reports false when the step is backward or longer than
// maxCatchUp, measured both in absolute time and on the wall clock, which
// also catches daylight-saving changes.
func wallGap(last, current time.Time) (int, bool) {
	if current.Before(last) || current.Sub(last) > maxCatchUp {
		return 0, false
	}

	from := domain.FromTime(last).SecondOfDay()
	to := domain.FromTime(current).SecondOfDay()

	gap := (to - from + domain.SecondsPerDay) % domain.SecondsPerDay
	if gap > int(maxCatchUp/time.Second) {
		return 0, false
	}

	return gap, true
}

// errBadRefresh is returned by Run for a non-positive refresh period.
var errBadRefresh = errors.New("refresh period must be positive")

// Indicator shows the alarm state on the LEDs.
type Indicator interface {
	Show(state domain.Indicator) error
}

// Buzzer sounds while the alarm rings.
type Buzzer interface {
	Set(on bool) error
}

// Button reports acknowledgment presses until ctx is done.
type Button interface {
	Watch(ctx context.Context, presses chan<- struct{}) error
}

// Peripherals are the devices driven by the service.
type Peripherals struct {
	Indicator Indicator
	Buzzer    Buzzer
	Button    Button
}

// Recorder receives alarm observations, typically Prometheus metrics.
type Recorder interface {
	ObserveFiring()
	ObserveAcknowledgment()
	ObserveRepairs(fields []string)
	SetState(status domain.Status, nextFireMinute int)
}

// Service drives a scheduler from the wall clock and serializes every access to it.
type Service struct {
	// scheduler is the alarm state machine; it has no locking of its own.
	scheduler *scheduler.Scheduler
	// peripherals are the LEDs, the buzzer and the button.
	peripherals Peripherals
	// recorder receives observations.
	recorder Recorder
	// now is the time source, already in the configured location.
	now func() time.Time
	// last is the most recent evaluated second.
	last time.Time
	// mu protects every field above.
	mu sync.Mutex
}

// NewService wraps sched and schedules the first firing from the current time.
func NewService(
	ctx context.Context,
	sched *scheduler.Scheduler,
	peripherals Peripherals,
	recorder Recorder,
	now func() time.Time,
) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}

	if now == nil {
		now = time.Now
	}

	s := &Service{
		scheduler:   sched,
		peripherals: peripherals,
		recorder:    recorder,
		now:         now,
	}

	recorder.ObserveRepairs(sched.Repaired())

	current := s.now()
	sched.Init(domain.FromTime(current))

	snapshot := sched.Snapshot()
	recorder.SetState(snapshot.Status, snapshot.NextFireMinute)

	logger.InfoKV(ctx, "Alarm scheduled",
		"enabled", snapshot.Config.Enabled,
		"window", snapshot.Config.Window.String(),
		"interval", snapshot.Config.Interval,
		"status", snapshot.Status.String(),
		"next_fire", domain.FormatMinute(snapshot.NextFireMinute),
	)

	return s
}

// Refresh evaluates every second elapsed since the previous call and drives the peripherals.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.now().Truncate(time.Second)
	before := s.scheduler.Status()

	switch gap, short := wallGap(s.last, current); {
	case s.last.IsZero():
		s.scheduler.Tick(domain.FromTime(current))
	case current.Equal(s.last):
		// Already evaluated.
	case !short:
		logger.WarnKV(ctx, "Wall clock jumped, rescheduling",
			"from", s.last.Format(time.TimeOnly),
			"to", current.Format(time.TimeOnly),
		)

		s.scheduler.Init(domain.FromTime(current))
		s.scheduler.Tick(domain.FromTime(current))
	default:
		from := domain.FromTime(s.last).SecondOfDay()
		for i := 1; i <= gap; i++ {
			s.scheduler.Tick(domain.FromSecondOfDay(from + i))
		}
	}

	s.last = current

	snapshot := s.scheduler.Snapshot()
	if before != domain.StatusRinging && snapshot.Status == domain.StatusRinging {
		s.recorder.ObserveFiring()

		logger.InfoKV(ctx, "Alarm ringing",
			"at", current.Format(time.TimeOnly),
			"next_fire", domain.FormatMinute(snapshot.NextFireMinute),
		)
	}

	s.recorder.SetState(snapshot.Status, snapshot.NextFireMinute)

	return s.drive(domain.FromTime(current).MinuteOfDay())
}

// Acknowledge silences a ringing alarm and returns the resulting state.
func (s *Service) Acknowledge(ctx context.Context) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler.Acknowledge() {
		s.recorder.ObserveAcknowledgment()

		logger.InfoKV(ctx, "Alarm acknowledged",
			"next_fire", domain.FormatMinute(s.scheduler.NextFireMinute()),
		)

		if err := s.drive(domain.FromTime(s.now()).MinuteOfDay()); err != nil {
			logger.ErrorKV(ctx, "Failed to drive peripherals", "error", err)
		}
	}

	return s.publish()
}

// Snapshot returns the current configuration and runtime state.
func (s *Service) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scheduler.Snapshot()
}

// SetEnabled switches the alarm on or off. Switching on reschedules from the current time.
func (s *Service) SetEnabled(ctx context.Context, enabled bool) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scheduler.SetEnabled(ctx, enabled); err != nil {
		return domain.Snapshot{}, err
	}

	if enabled {
		s.scheduler.Init(domain.FromTime(s.now()))
	}

	s.logChange(ctx)

	return s.publish(), nil
}

// SetWindow changes both window bounds and reschedules from the current time.
func (s *Service) SetWindow(ctx context.Context, start, end int) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.scheduler.SetWindowStart(ctx, start)
	if err == nil {
		err = s.scheduler.SetWindowEnd(ctx, end)
	}

	// The start may be persisted even when the end failed.
	s.scheduler.Init(domain.FromTime(s.now()))

	if err != nil {
		return domain.Snapshot{}, err
	}

	s.logChange(ctx)

	return s.publish(), nil
}

// SetInterval changes the firing interval and reschedules from the current time.
func (s *Service) SetInterval(ctx context.Context, minutes int) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scheduler.SetInterval(ctx, minutes); err != nil {
		return domain.Snapshot{}, err
	}

	s.scheduler.Init(domain.FromTime(s.now()))
	s.logChange(ctx)

	return s.publish(), nil
}

// Run refreshes the alarm every refresh period and acknowledges on button
// presses until ctx is canceled. On exit the peripherals are switched off.
func (s *Service) Run(ctx context.Context, refresh time.Duration) error {
	if refresh <= 0 {
		return fmt.Errorf("%w: %s", errBadRefresh, refresh)
	}

	presses := make(chan struct{})

	if s.peripherals.Button != nil {
		go func() {
			if err := s.peripherals.Button.Watch(ctx, presses); err != nil {
				logger.ErrorKV(ctx, "Button watcher stopped", "error", err)
			}
		}()
	}

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Clock loop stopped")

			return s.switchOff()
		case <-presses:
			s.Acknowledge(ctx)
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				logger.ErrorKV(ctx, "Failed to drive peripherals", "error", err)
			}
		}
	}
}

// drive shows the state for minute on the LEDs and switches the buzzer.
func (s *Service) drive(minute int) error {
	var errs []error

	if s.peripherals.Indicator != nil {
		errs = append(errs, s.peripherals.Indicator.Show(s.scheduler.Indicator(minute)))
	}

	if s.peripherals.Buzzer != nil {
		errs = append(errs, s.peripherals.Buzzer.Set(s.scheduler.Status() == domain.StatusRinging))
	}

	return errors.Join(errs...)
}

// switchOff turns every peripheral off.
func (s *Service) switchOff() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error

	if s.peripherals.Indicator != nil {
		errs = append(errs, s.peripherals.Indicator.Show(domain.IndicatorNone))
	}

	if s.peripherals.Buzzer != nil {
		errs = append(errs, s.peripherals.Buzzer.Set(false))
	}

	return errors.Join(errs...)
}

// publish records and returns the current snapshot. Callers hold mu.
func (s *Service) publish() domain.Snapshot {
	snapshot := s.scheduler.Snapshot()
	s.recorder.SetState(snapshot.Status, snapshot.NextFireMinute)

	return snapshot
}

func (s *Service) logChange(ctx context.Context) {
	snapshot := s.scheduler.Snapshot()

	logger.InfoKV(ctx, "Alarm configuration updated",
		"enabled", snapshot.Config.Enabled,
		"window", snapshot.Config.Window.String(),
		"interval", snapshot.Config.Interval,
		"status", snapshot.Status.String(),
		"next_fire", domain.FormatMinute(snapshot.NextFireMinute),
	)
}

// noopRecorder discards observations.
type noopRecorder struct{}

func (noopRecorder) ObserveFiring() {}

func (noopRecorder) ObserveAcknowledgment() {}

func (noopRecorder) ObserveRepairs([]string) {}

func (noopRecorder) SetState(domain.Status, int) {}

package alarm

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/window-alarm/internal/domain/alarm"
)

// Field names of the alarm state struct.
const (
	fieldEnabled        = "enabled"
	fieldWindowStart    = "window_start"
	fieldWindowEnd      = "window_end"
	fieldInterval       = "interval"
	fieldStatus         = "status"
	fieldNextFireMinute = "next_fire_minute"

	fieldStart = "start"
	fieldEnd   = "end"
)

var (
	// ErrMissingField is returned when a struct lacks a required field.
	ErrMissingField = errors.New("missing field")
	// ErrBadField is returned when a field has the wrong kind or value.
	ErrBadField = errors.New("bad field")
)

// ToStruct encodes a snapshot as a protobuf Struct.
func ToStruct(snapshot domain.Snapshot) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldEnabled:        structpb.NewBoolValue(snapshot.Config.Enabled),
			fieldWindowStart:    structpb.NewNumberValue(float64(snapshot.Config.Window.Start)),
			fieldWindowEnd:      structpb.NewNumberValue(float64(snapshot.Config.Window.End)),
			fieldInterval:       structpb.NewNumberValue(float64(snapshot.Config.Interval)),
			fieldStatus:         structpb.NewStringValue(snapshot.Status.String()),
			fieldNextFireMinute: structpb.NewNumberValue(float64(snapshot.NextFireMinute)),
		},
	}
}

// FromStruct decodes a snapshot produced by ToStruct.
func FromStruct(s *structpb.Struct) (domain.Snapshot, error) {
	enabled, err := boolField(s, fieldEnabled)
	if err != nil {
		return domain.Snapshot{}, err
	}

	start, err := intField(s, fieldWindowStart)
	if err != nil {
		return domain.Snapshot{}, err
	}

	end, err := intField(s, fieldWindowEnd)
	if err != nil {
		return domain.Snapshot{}, err
	}

	interval, err := intField(s, fieldInterval)
	if err != nil {
		return domain.Snapshot{}, err
	}

	next, err := intField(s, fieldNextFireMinute)
	if err != nil {
		return domain.Snapshot{}, err
	}

	statusName, err := stringField(s, fieldStatus)
	if err != nil {
		return domain.Snapshot{}, err
	}

	status, ok := domain.ParseStatus(statusName)
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("%w: %s = %q", ErrBadField, fieldStatus, statusName)
	}

	return domain.Snapshot{
		Config: domain.Config{
			Enabled:  enabled,
			Window:   domain.Window{Start: start, End: end},
			Interval: interval,
		},
		Status:         status,
		NextFireMinute: next,
	}, nil
}

// WindowRequest encodes the bounds of a SetWindow call.
func WindowRequest(start, end int) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldStart: structpb.NewNumberValue(float64(start)),
			fieldEnd:   structpb.NewNumberValue(float64(end)),
		},
	}
}

// windowFromRequest decodes and validates the bounds of a SetWindow call.
func windowFromRequest(s *structpb.Struct) (domain.Window, error) {
	start, err := intField(s, fieldStart)
	if err != nil {
		return domain.Window{}, err
	}

	end, err := intField(s, fieldEnd)
	if err != nil {
		return domain.Window{}, err
	}

	for name, v := range map[string]int{fieldStart: start, fieldEnd: end} {
		if !domain.IsValidMinute(v) {
			return domain.Window{}, fmt.Errorf("%w: %s = %d is not a minute of day", ErrBadField, name, v)
		}
	}

	return domain.Window{Start: start, End: end}, nil
}

func field(s *structpb.Struct, name string) (*structpb.Value, error) {
	v, ok := s.GetFields()[name]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, name)
	}

	return v, nil
}

func boolField(s *structpb.Struct, name string) (bool, error) {
	v, err := field(s, name)
	if err != nil {
		return false, err
	}

	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%w: %s is not a bool", ErrBadField, name)
	}

	return b.BoolValue, nil
}

func stringField(s *structpb.Struct, name string) (string, error) {
	v, err := field(s, name)
	if err != nil {
		return "", err
	}

	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrBadField, name)
	}

	return str.StringValue, nil
}

func intField(s *structpb.Struct, name string) (int, error) {
	v, err := field(s, name)
	if err != nil {
		return 0, err
	}

	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrBadField, name)
	}

	return int(n.NumberValue), nil
}

package settings

import (
	"context"
	"encoding/binary"
	"fmt"
)

// Field locates one persisted value relative to the record base.
type Field struct {
	// Offset is the distance from the record base in bytes.
	Offset int
	// Width is the size of the value in bytes.
	Width int
}

// Layout is the versioned byte contract of the persisted alarm configuration.
type Layout struct {
	// Version identifies the contract; it is not stored on the medium.
	Version int
	// Enabled is the master switch, one byte holding 0 or 1.
	Enabled Field
	// WindowStart is the first minute of the window, little-endian uint16.
	WindowStart Field
	// WindowEnd is the end minute of the window, little-endian uint16.
	WindowEnd Field
	// Interval is the firing interval in minutes, little-endian uint16.
	Interval Field
	// Size is the total footprint of the record.
	Size int
}

// LayoutV1 is the 7-byte layout used since the first firmware release.
//
//nolint:gochecknoglobals // Read-only contract shared by readers and writers.
var LayoutV1 = Layout{
	Version:     1,
	Enabled:     Field{Offset: 0, Width: 1},
	WindowStart: Field{Offset: 1, Width: 2},
	WindowEnd:   Field{Offset: 3, Width: 2},
	Interval:    Field{Offset: 5, Width: 2},
	Size:        7,
}

// Raw holds the persisted values exactly as read, before any repair.
type Raw struct {
	Enabled     uint8
	WindowStart uint16
	WindowEnd   uint16
	Interval    uint16
}

// Record reads and writes the configuration fields at a base offset.
type Record struct {
	// storage is the underlying durable medium.
	storage Storage
	// base is the offset of the record inside storage.
	base int
	// layout describes field positions.
	layout Layout
}

// NewRecord binds LayoutV1 to storage at base.
func NewRecord(storage Storage, base int) *Record {
	return &Record{
		storage: storage,
		base:    base,
		layout:  LayoutV1,
	}
}

// Layout returns the layout the record uses.
func (r *Record) Layout() Layout {
	return r.layout
}

// Load reads every field of the record.
func (r *Record) Load(ctx context.Context) (Raw, error) {
	buf := make([]byte, r.layout.Size)
	if err := r.storage.Read(ctx, r.base, buf); err != nil {
		return Raw{}, fmt.Errorf("read alarm record: %w", err)
	}

	return Raw{
		Enabled:     buf[r.layout.Enabled.Offset],
		WindowStart: binary.LittleEndian.Uint16(buf[r.layout.WindowStart.Offset:]),
		WindowEnd:   binary.LittleEndian.Uint16(buf[r.layout.WindowEnd.Offset:]),
		Interval:    binary.LittleEndian.Uint16(buf[r.layout.Interval.Offset:]),
	}, nil
}

// SaveEnabled stores the master switch, touching the medium only when the value changes.
func (r *Record) SaveEnabled(ctx context.Context, enabled bool) error {
	var value uint8
	if enabled {
		value = 1
	}

	if err := r.storage.Update(ctx, r.base+r.layout.Enabled.Offset, []byte{value}); err != nil {
		return fmt.Errorf("write enabled: %w", err)
	}

	return nil
}

// SaveWindowStart stores the first minute of the window.
func (r *Record) SaveWindowStart(ctx context.Context, minute uint16) error {
	return r.saveUint16(ctx, "window start", r.layout.WindowStart, minute)
}

// SaveWindowEnd stores the end minute of the window.
func (r *Record) SaveWindowEnd(ctx context.Context, minute uint16) error {
	return r.saveUint16(ctx, "window end", r.layout.WindowEnd, minute)
}

// SaveInterval stores the firing interval.
func (r *Record) SaveInterval(ctx context.Context, minutes uint16) error {
	return r.saveUint16(ctx, "interval", r.layout.Interval, minutes)
}

func (r *Record) saveUint16(ctx context.Context, name string, field Field, value uint16) error {
	buf := make([]byte, field.Width)
	binary.LittleEndian.PutUint16(buf, value)

	if err := r.storage.Update(ctx, r.base+field.Offset, buf); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

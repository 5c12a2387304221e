package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErasedByte is the value of a never-written storage cell.
const ErasedByte = 0xFF

// DefaultFilePermissions is used when the storage image file is created.
const DefaultFilePermissions = 0o600

// ErrOutOfRange is returned when an access falls outside the storage.
var ErrOutOfRange = errors.New("storage access out of range")

// Storage is byte-addressable durable memory.
type Storage interface {
	// Read fills buf with the bytes starting at offset.
	Read(ctx context.Context, offset int, buf []byte) error
	// Write stores data at offset unconditionally.
	Write(ctx context.Context, offset int, data []byte) error
	// Update stores only the bytes of data that differ from the stored ones.
	Update(ctx context.Context, offset int, data []byte) error
}

// MemoryStorage keeps the storage image in memory.
type MemoryStorage struct {
	// cells is the storage image.
	cells []byte
	// writes counts physical byte writes.
	writes int
	// mu protects cells and writes.
	mu sync.Mutex
}

// NewMemoryStorage creates an erased in-memory storage of the given size.
func NewMemoryStorage(size int) *MemoryStorage {
	return &MemoryStorage{
		cells: bytes.Repeat([]byte{ErasedByte}, size),
	}
}

// Read fills buf with the bytes starting at offset.
func (m *MemoryStorage) Read(_ context.Context, offset int, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkRange(len(m.cells), offset, len(buf)); err != nil {
		return err
	}

	copy(buf, m.cells[offset:])

	return nil
}

// Write stores data at offset unconditionally.
func (m *MemoryStorage) Write(_ context.Context, offset int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkRange(len(m.cells), offset, len(data)); err != nil {
		return err
	}

	copy(m.cells[offset:], data)
	m.writes += len(data)

	return nil
}

// Update stores only the bytes of data that differ from the stored ones.
func (m *MemoryStorage) Update(_ context.Context, offset int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkRange(len(m.cells), offset, len(data)); err != nil {
		return err
	}

	for i, b := range data {
		if m.cells[offset+i] != b {
			m.cells[offset+i] = b
			m.writes++
		}
	}

	return nil
}

// Writes returns the number of physical byte writes performed so far.
func (m *MemoryStorage) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.writes
}

// FileStorage persists the storage image in a file on disk.
type FileStorage struct {
	// path is the filesystem location of the image file.
	path string
	// size is the number of addressable bytes.
	size int
	// file is the open image file.
	file *os.File
	// mu serializes file access.
	mu sync.Mutex
}

// OpenFileStorage opens the image at path, creating or extending it with
// erased cells until it holds at least size bytes.
func OpenFileStorage(path string, size int) (*FileStorage, error) {
	path = filepath.Clean(path)

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, DefaultFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("open storage file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("stat storage file: %w", err)
	}

	if missing := int64(size) - info.Size(); missing > 0 {
		fill := bytes.Repeat([]byte{ErasedByte}, int(missing))
		if _, err = file.WriteAt(fill, info.Size()); err != nil {
			_ = file.Close()

			return nil, fmt.Errorf("initialise storage file: %w", err)
		}
	}

	return &FileStorage{
		path: path,
		size: size,
		file: file,
	}, nil
}

// Path returns the location of the image file.
func (f *FileStorage) Path() string {
	return f.path
}

// Read fills buf with the bytes starting at offset.
func (f *FileStorage) Read(_ context.Context, offset int, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := checkRange(f.size, offset, len(buf)); err != nil {
		return err
	}

	if _, err := f.file.ReadAt(buf, int64(offset)); err != nil {
		return fmt.Errorf("read storage file: %w", err)
	}

	return nil
}

// Write stores data at offset unconditionally and syncs the file.
func (f *FileStorage) Write(_ context.Context, offset int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.writeLocked(offset, data)
}

// Update stores data at offset only when it differs from the stored bytes.
func (f *FileStorage) Update(_ context.Context, offset int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := checkRange(f.size, offset, len(data)); err != nil {
		return err
	}

	current := make([]byte, len(data))
	if _, err := f.file.ReadAt(current, int64(offset)); err != nil {
		return fmt.Errorf("read storage file: %w", err)
	}

	if bytes.Equal(current, data) {
		return nil
	}

	return f.writeLocked(offset, data)
}

// Close releases the image file.
func (f *FileStorage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	err := f.file.Close()
	f.file = nil

	return err
}

func (f *FileStorage) writeLocked(offset int, data []byte) error {
	if err := checkRange(f.size, offset, len(data)); err != nil {
		return err
	}

	if _, err := f.file.WriteAt(data, int64(offset)); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}

	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("sync storage file: %w", err)
	}

	return nil
}

// checkRange validates that [offset, offset+length) fits into size bytes.
func checkRange(size, offset, length int) error {
	if offset < 0 || length < 0 || offset+length > size {
		return fmt.Errorf("%w: offset %d, length %d, size %d", ErrOutOfRange, offset, length, size)
	}

	return nil
}

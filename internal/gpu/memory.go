package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// Memory management errors.
var (
	// ErrMemoryBudgetExceeded is returned when an allocation would exceed the budget.
	ErrMemoryBudgetExceeded = errors.New("gpu: memory budget exceeded")

	// ErrNoDevice is returned when the renderer has been destroyed.
	ErrNoDevice = errors.New("gpu: renderer has no device")
)

// Default memory limits.
const (
	// DefaultMaxMemoryMB is the default buffer and texture budget (256 MB).
	DefaultMaxMemoryMB = 256

	// MinMemoryMB is the minimum allowed budget (16 MB).
	MinMemoryMB = 16
)

// MemoryStats contains GPU memory usage statistics.
type MemoryStats struct {
	TotalBytes  uint64
	UsedBytes   uint64
	BufferCount int
	Utilization float64
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d KB, %d buffers]",
		s.Utilization*100, s.UsedBytes/1024, s.TotalBytes/1024, s.BufferCount)
}

// memoryLedger accounts for the bytes held by live buffers and textures
// against a budget. It does not evict; a rebuild that would overflow the
// budget fails instead.
type memoryLedger struct {
	budget uint64
	used   uint64
	sizes  map[any]uint64
}

func newMemoryLedger(maxMB int) *memoryLedger {
	if maxMB < MinMemoryMB {
		maxMB = DefaultMaxMemoryMB
	}
	return &memoryLedger{
		budget: uint64(maxMB) * 1024 * 1024,
		sizes:  make(map[any]uint64),
	}
}

// reserve checks that size more bytes fit in the budget.
func (l *memoryLedger) reserve(label string, size uint64) error {
	if l.used+size > l.budget {
		return fmt.Errorf("%s (%d bytes, %d/%d used): %w", label, size, l.used, l.budget, ErrMemoryBudgetExceeded)
	}
	return nil
}

func (l *memoryLedger) track(res any, size uint64) {
	if _, ok := l.sizes[res]; ok {
		return
	}
	l.sizes[res] = size
	l.used += size
}

func (l *memoryLedger) untrack(res any) {
	if size, ok := l.sizes[res]; ok {
		l.used -= size
		delete(l.sizes, res)
	}
}

func (l *memoryLedger) stats() MemoryStats {
	s := MemoryStats{TotalBytes: l.budget, UsedBytes: l.used, BufferCount: len(l.sizes)}
	if l.budget > 0 {
		s.Utilization = float64(l.used) / float64(l.budget)
	}
	return s
}

// destroyBuffer releases buf and removes it from the ledger.
func (l *memoryLedger) destroyBuffer(device hal.Device, buf hal.Buffer) {
	if buf == nil {
		return
	}
	l.untrack(buf)
	device.DestroyBuffer(buf)
}

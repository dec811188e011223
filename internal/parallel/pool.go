package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines that split the bands of a
// frame between them. It is safe for concurrent use.
type WorkerPool struct {
	workers int
	frames  chan *frame
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// frame is one ForEachBand call. Workers and the caller claim bands
// through next until none are left.
type frame struct {
	bands []Band
	fn    func(i int, b Band)
	next  atomic.Int64
	left  sync.WaitGroup
}

func (f *frame) run() {
	for {
		i := int(f.next.Add(1) - 1)
		if i >= len(f.bands) {
			return
		}
		f.fn(i, f.bands[i])
		f.left.Done()
	}
}

// NewWorkerPool starts a pool of the given size.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{
		workers: workers,
		frames:  make(chan *frame, workers),
	}
	p.wg.Add(workers)
	for range workers {
		go func() {
			defer p.wg.Done()
			for f := range p.frames {
				f.run()
			}
		}()
	}
	return p
}

// Close stops the workers. It is safe to call more than once; after
// Close, ForEachBand runs on the calling goroutine.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.frames)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int { return p.workers }

// Band is a half-open row range [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Bands splits height rows into at most n contiguous bands of near-equal
// size. It returns nil when height is not positive.
func Bands(height, n int) []Band {
	if height <= 0 {
		return nil
	}
	n = max(min(n, height), 1)
	out := make([]Band, 0, n)
	for i := range n {
		out = append(out, Band{Y0: i * height / n, Y1: (i + 1) * height / n})
	}
	return out
}

// ForEachBand runs fn once per band of height rows and waits. The caller
// takes bands too, so a busy pool never blocks it. A nil pool runs a
// single band covering every row on the calling goroutine.
func (p *WorkerPool) ForEachBand(height int, fn func(i int, b Band)) {
	if p == nil {
		if height > 0 {
			fn(0, Band{Y0: 0, Y1: height})
		}
		return
	}
	f := &frame{bands: Bands(height, 2*p.workers), fn: fn}
	if len(f.bands) == 0 {
		return
	}
	f.left.Add(len(f.bands))

	p.mu.RLock()
	if !p.closed {
		for range min(p.workers, len(f.bands)-1) {
			select {
			case p.frames <- f:
			default:
			}
		}
	}
	p.mu.RUnlock()

	f.run()
	f.left.Wait()
}

// BandCount returns how many bands ForEachBand uses for height rows.
func (p *WorkerPool) BandCount(height int) int {
	if p == nil {
		return min(max(height, 0), 1)
	}
	return len(Bands(height, 2*p.workers))
}

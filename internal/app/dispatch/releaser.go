package dispatch

import (
	"errors"
	"sync"
	"time"
)

var ErrReleaserClosed = errors.New("releaser closed")

// Releaser runs deferred release callbacks. Each scheduled callback runs
// exactly once: when its timer fires or when Close flushes it.
type Releaser struct {
	mu      sync.Mutex
	pending map[*releaseTask]struct{}
	closed  bool
	wg      sync.WaitGroup
}

type releaseTask struct {
	once  sync.Once
	timer *time.Timer
	fn    func()
}

func NewReleaser() *Releaser {
	return &Releaser{pending: make(map[*releaseTask]struct{})}
}

// Schedule runs fn after d. It fails once the releaser is closed.
func (r *Releaser) Schedule(d time.Duration, fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrReleaserClosed
	}
	if r.pending == nil {
		r.pending = make(map[*releaseTask]struct{})
	}
	task := &releaseTask{fn: fn}
	r.pending[task] = struct{}{}
	r.wg.Add(1)
	task.timer = time.AfterFunc(d, func() { r.run(task) })
	return nil
}

func (r *Releaser) run(task *releaseTask) {
	task.once.Do(func() {
		defer r.wg.Done()
		r.mu.Lock()
		delete(r.pending, task)
		r.mu.Unlock()
		task.fn()
	})
}

func (r *Releaser) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Close rejects new schedules, runs every pending callback now and waits
// for in-flight callbacks to finish.
func (r *Releaser) Close() {
	r.mu.Lock()
	r.closed = true
	tasks := make([]*releaseTask, 0, len(r.pending))
	for task := range r.pending {
		tasks = append(tasks, task)
	}
	r.mu.Unlock()

	for _, task := range tasks {
		task.timer.Stop()
		r.run(task)
	}
	r.wg.Wait()
}

package transport

import (
	"sort"
	"sync"
	"time"
)

// Task is a handle on a repeating scheduled function
type Task interface {
	// Cancel stops future invocations. It is safe to call more than once and
	// from inside the scheduled function itself.
	Cancel()
}

// Scheduler runs a function repeatedly at a fixed interval
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
}

// TickerScheduler schedules tasks on real wall-clock time using time.Ticker
type TickerScheduler struct{}

// NewTickerScheduler creates a wall-clock scheduler
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

// Every starts a goroutine invoking fn every interval until the task is cancelled
func (s *TickerScheduler) Every(interval time.Duration, fn func()) Task {
	task := &tickerTask{stopCh: make(chan struct{})}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-task.stopCh:
				return
			case <-ticker.C:
				// a cancel racing with the tick wins
				select {
				case <-task.stopCh:
					return
				default:
				}
				fn()
			}
		}
	}()

	return task
}

type tickerTask struct {
	once   sync.Once
	stopCh chan struct{}
}

func (t *tickerTask) Cancel() {
	t.once.Do(func() { close(t.stopCh) })
}

// ManualScheduler is a simulated clock. Time only moves when Advance is called,
// and due tasks run synchronously on the caller's goroutine.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*manualTask
	seq   int
}

type manualTask struct {
	scheduler *ManualScheduler
	interval  time.Duration
	next      time.Duration
	order     int
	fn        func()
	cancelled bool
}

// NewManualScheduler creates a simulated scheduler starting at time zero
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Every registers fn to run every interval of simulated time
func (s *ManualScheduler) Every(interval time.Duration, fn func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if interval <= 0 {
		interval = time.Millisecond
	}
	s.seq++
	task := &manualTask{
		scheduler: s,
		interval:  interval,
		next:      s.now + interval,
		order:     s.seq,
		fn:        fn,
	}
	s.tasks = append(s.tasks, task)
	return task
}

// Advance moves simulated time forward by d, running every task that falls due
// in chronological order. Returns the number of invocations performed.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	fired := 0
	for {
		s.mu.Lock()
		task := s.nextDue(target)
		if task == nil {
			s.now = target
			s.mu.Unlock()
			return fired
		}
		s.now = task.next
		task.next += task.interval
		fn := task.fn
		s.mu.Unlock()

		fn()
		fired++
	}
}

// Now returns the current simulated time
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of active tasks
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// nextDue returns the earliest active task due at or before target. Caller holds s.mu.
func (s *ManualScheduler) nextDue(target time.Duration) *manualTask {
	if len(s.tasks) == 0 {
		return nil
	}
	sort.SliceStable(s.tasks, func(i, j int) bool {
		if s.tasks[i].next == s.tasks[j].next {
			return s.tasks[i].order < s.tasks[j].order
		}
		return s.tasks[i].next < s.tasks[j].next
	})
	if s.tasks[0].next > target {
		return nil
	}
	return s.tasks[0]
}

func (t *manualTask) Cancel() {
	s := t.scheduler
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.cancelled {
		return
	}
	t.cancelled = true
	for i, task := range s.tasks {
		if task == t {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
}

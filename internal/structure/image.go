package structure

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State of one structure image instance.
type State int

const (
	Loading State = iota
	RetryPending
	Fallback
	Loaded
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case RetryPending:
		return "retry-pending"
	case Fallback:
		return "fallback"
	case Loaded:
		return "loaded"
	}
	return "unknown"
}

// Scheduler runs f once after d. The returned stop function cancels a task
// that has not run yet.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// TimerScheduler schedules on real timers.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Image tracks the load of one image instance. The first failure schedules a
// single cache-busting reload after the retry delay; a failure after that
// switches permanently to the placeholder. State is per instance.
type Image struct {
	ID uuid.UUID

	mu          sync.Mutex
	src         string
	current     string
	placeholder string
	state       State
	retried     bool
	stop        func() bool

	delay  time.Duration
	sched  Scheduler
	now    func() time.Time
	reload func(src string)
}

// Option customizes an Image.
type Option func(*Image)

// WithClock sets the clock used for the cache-busting suffix.
func WithClock(now func() time.Time) Option { return func(i *Image) { i.now = now } }

// NewImage starts an instance in Loading. reload is called from the
// scheduler with the new source when the retry fires.
func NewImage(src, placeholder string, delay time.Duration, sched Scheduler, reload func(src string), opts ...Option) *Image {
	if sched == nil {
		sched = TimerScheduler{}
	}
	i := &Image{
		ID:          uuid.New(),
		src:         src,
		current:     src,
		placeholder: placeholder,
		delay:       delay,
		sched:       sched,
		now:         time.Now,
		reload:      reload,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Src returns the source the image should currently load.
func (i *Image) Src() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current
}

// State returns the current state.
func (i *Image) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Failed records a load error and returns the resulting state.
func (i *Image) Failed() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	switch i.state {
	case Fallback, Loaded:
		return i.state
	case Loading:
		if !i.retried {
			i.state = RetryPending
			i.stop = i.sched.AfterFunc(i.delay, i.fire)
			return i.state
		}
	}
	// A second failure, or one that arrives while the retry is pending.
	if i.stop != nil {
		i.stop()
		i.stop = nil
	}
	i.state = Fallback
	i.current = i.placeholder
	return i.state
}

// Succeeded records a completed load.
func (i *Image) Succeeded() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == Loading {
		i.state = Loaded
	}
}

// Cancel drops a pending retry; the image goes straight to the placeholder.
func (i *Image) Cancel() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state != RetryPending {
		return
	}
	if i.stop != nil {
		i.stop()
		i.stop = nil
	}
	i.state = Fallback
	i.current = i.placeholder
}

func (i *Image) fire() {
	i.mu.Lock()
	if i.state != RetryPending {
		i.mu.Unlock()
		return
	}
	i.state = Loading
	i.retried = true
	i.stop = nil
	i.current = i.src + "?" + strconv.FormatInt(i.now().UnixMilli(), 10)
	src, reload := i.current, i.reload
	i.mu.Unlock()
	if reload != nil {
		reload(src)
	}
}

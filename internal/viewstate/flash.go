package viewstate

import (
	"sync"
	"time"
)

const DefaultFlashTTL = 3 * time.Second

// Flash is a transient message that clears itself ttl after the most recent
// Set. Superseding or clearing the message stops the pending timer first.
type Flash struct {
	mu     sync.Mutex
	clock  Clock
	ttl    time.Duration
	msg    string
	timer  Timer
	gen    uint64
	closed bool
}

func NewFlash(clock Clock, ttl time.Duration) *Flash {
	if clock == nil {
		clock = SystemClock
	}
	if ttl <= 0 {
		ttl = DefaultFlashTTL
	}
	return &Flash{clock: clock, ttl: ttl}
}

func (f *Flash) Set(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.stopLocked()
	f.msg = msg
	if msg == "" {
		return
	}
	gen := f.gen
	f.timer = f.clock.AfterFunc(f.ttl, func() {
		f.expire(gen)
	})
}

func (f *Flash) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msg
}

func (f *Flash) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopLocked()
	f.msg = ""
}

// Close clears the message for good; later Set calls are ignored.
func (f *Flash) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopLocked()
	f.msg = ""
	f.closed = true
}

func (f *Flash) expire(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// a callback that lost the race with Stop must not clear a newer message
	if gen != f.gen {
		return
	}
	f.msg = ""
	f.timer = nil
}

func (f *Flash) stopLocked() {
	f.gen++
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

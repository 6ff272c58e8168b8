// Package viewstate holds the disposable, per-page copies of fetched data
// together with their loading, error and transient success flags.
package viewstate

import (
	"context"
	"errors"
	"strings"
	"sync"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrStale is returned by Refresh when a newer fetch was issued (or the
// store was reset) before this one resolved; its result was dropped.
var ErrStale = errors.New("viewstate: superseded by a newer fetch")

type Snapshot[T any] struct {
	Status  Status
	Data    T
	HasData bool
	Err     string
}

func (s Snapshot[T]) Loading() bool { return s.Status == StatusLoading }
func (s Snapshot[T]) Failed() bool  { return s.Status == StatusFailed }

type Option func(*options)

type options struct {
	observer func(Status)
}

// WithObserver registers a callback invoked with every state transition.
// It runs outside the store lock.
func WithObserver(fn func(Status)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

type Store[T any] struct {
	mu       sync.Mutex
	fallback string
	observer func(Status)

	status  Status
	data    T
	hasData bool
	errMsg  string
	ticket  uint64
}

func NewStore[T any](fallback string, opts ...Option) *Store[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{fallback: fallback, observer: o.observer}
}

// Begin enters loading and returns the ticket the result must be resolved
// with. Issuing a new ticket invalidates every earlier one.
func (s *Store[T]) Begin() uint64 {
	s.mu.Lock()
	s.ticket++
	ticket := s.ticket
	s.status = StatusLoading
	s.errMsg = ""
	s.mu.Unlock()
	s.notify(StatusLoading)
	return ticket
}

// Resolve applies a fetch outcome if ticket is still the latest one.
func (s *Store[T]) Resolve(ticket uint64, data T, err error) bool {
	s.mu.Lock()
	if ticket != s.ticket {
		s.mu.Unlock()
		return false
	}
	if err != nil {
		s.status = StatusFailed
		s.errMsg = ErrorMessage(err, s.fallback)
	} else {
		s.status = StatusReady
		s.data = data
		s.hasData = true
		s.errMsg = ""
	}
	next := s.status
	s.mu.Unlock()
	s.notify(next)
	return true
}

func (s *Store[T]) Refresh(ctx context.Context, fetch func(context.Context) (T, error)) error {
	ticket := s.Begin()
	data, err := fetch(ctx)
	if !s.Resolve(ticket, data, err) {
		return ErrStale
	}
	return err
}

// Reset discards data and any in-flight fetch, returning to idle.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	s.ticket++
	var zero T
	s.data = zero
	s.hasData = false
	s.errMsg = ""
	s.status = StatusIdle
	s.mu.Unlock()
	s.notify(StatusIdle)
}

func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot[T]{
		Status:  s.status,
		Data:    s.data,
		HasData: s.hasData,
		Err:     s.errMsg,
	}
}

func (s *Store[T]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Store[T]) notify(status Status) {
	if s.observer != nil {
		s.observer(status)
	}
}

type userMessager interface {
	UserMessage() string
}

// ErrorMessage picks the human readable message carried by err, if any.
func ErrorMessage(err error, fallback string) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
	}
	return fallback
}

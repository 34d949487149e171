// Package state holds the per-screen view-state containers. Each holder
// subscribes to repository streams, folds them into one immutable UI state
// value, and exposes imperative methods for user actions. Write failures are
// absorbed here: they become an Error state or a one-shot event, never a
// crash.
package state

import (
	"context"
	"sync"
)

// Phase is the rendering phase of a screen's UI state.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseEmpty
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseEmpty:
		return "empty"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a one-shot user-facing notice (snackbar text, navigation cue).
type Event struct {
	Message string
}

type events struct {
	ch chan Event
}

func newEvents() events {
	return events{ch: make(chan Event, 8)}
}

// Events streams one-shot notices. The buffer is small; if nobody is
// listening, old notices are dropped rather than blocking an action.
func (e events) Events() <-chan Event { return e.ch }

func (e events) emit(msg string) {
	select {
	case e.ch <- Event{Message: msg}:
	default:
		select {
		case <-e.ch:
		default:
		}
		select {
		case e.ch <- Event{Message: msg}:
		default:
		}
	}
}

// value is a watchable state cell. Watchers get the current value on
// subscribe and then the latest value after each set; intermediate values
// may be skipped by slow readers.
type value[T any] struct {
	mu     sync.Mutex
	cur    T
	nextID int
	subs   map[int]chan T
}

func newValue[T any](initial T) *value[T] {
	return &value[T]{cur: initial, subs: make(map[int]chan T)}
}

func (v *value[T]) get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

func (v *value[T]) set(next T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cur = next
	for _, ch := range v.subs {
		select {
		case ch <- next:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
}

func (v *value[T]) watch(ctx context.Context) <-chan T {
	ch := make(chan T, 1)
	v.mu.Lock()
	ch <- v.cur
	id := v.nextID
	v.nextID++
	v.subs[id] = ch
	v.mu.Unlock()

	go func() {
		<-ctx.Done()
		v.mu.Lock()
		defer v.mu.Unlock()
		if _, ok := v.subs[id]; ok {
			delete(v.subs, id)
			close(ch)
		}
	}()
	return ch
}

// poke requests a recompute without blocking the caller.
func poke(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

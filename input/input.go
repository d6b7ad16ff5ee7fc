// Package input defines the events the viewer reacts to and the Source
// interface through which a window (or anything else) delivers them.
package input

import (
	"fmt"
	"strings"
	"sync"
)

// Key identifies a keyboard key independently of the windowing library.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyR
	KeyF5
	KeyHome
	KeySpace
)

var keyNames = map[Key]string{
	KeyUnknown: "unknown",
	KeyEscape:  "escape",
	KeyR:       "r",
	KeyF5:      "f5",
	KeyHome:    "home",
	KeySpace:   "space",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", int(k))
}

// ParseKey maps a case-insensitive key name ("R", "f5", "escape") to a Key.
func ParseKey(name string) (Key, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range keyNames {
		if k != KeyUnknown && n == name {
			return k, nil
		}
	}
	return KeyUnknown, fmt.Errorf("unknown key %q", name)
}

// MouseButton identifies a mouse button.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// Event is one discrete input occurrence.
type Event interface{ isEvent() }

// KeyPressed is sent once when a key goes down.
type KeyPressed struct{ Key Key }

// MouseButtonChanged reports a press or release together with the cursor
// position at that moment.
type MouseButtonChanged struct {
	Button MouseButton
	Down   bool
	X, Y   float64
}

// CursorMoved reports the absolute cursor position.
type CursorMoved struct{ X, Y float64 }

// Scrolled reports a vertical scroll offset.
type Scrolled struct{ Delta float64 }

// Resized reports a new framebuffer size in pixels.
type Resized struct{ Width, Height int }

// CloseRequested asks the viewer to stop after the current frame.
type CloseRequested struct{}

// ReloadRequested asks for a shader reload regardless of file timestamps.
type ReloadRequested struct{ Reason string }

func (KeyPressed) isEvent()         {}
func (MouseButtonChanged) isEvent() {}
func (CursorMoved) isEvent()        {}
func (Scrolled) isEvent()           {}
func (Resized) isEvent()            {}
func (CloseRequested) isEvent()     {}
func (ReloadRequested) isEvent()    {}

// Source delivers pending events. PollEvents never blocks; it returns the
// events gathered since the previous call, oldest first.
type Source interface {
	PollEvents() []Event
}

// Queue is a Source fed by Push. It is safe to Push from other goroutines.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

// Push appends events to the queue.
func (q *Queue) Push(events ...Event) {
	q.mu.Lock()
	q.events = append(q.events, events...)
	q.mu.Unlock()
}

// PollEvents drains the queue.
func (q *Queue) PollEvents() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = nil
	return out
}

// Len returns the number of undelivered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

type multi []Source

// Multi merges several sources. Events are returned source by source in the
// order the sources were given.
func Multi(sources ...Source) Source {
	var m multi
	for _, s := range sources {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multi) PollEvents() []Event {
	var out []Event
	for _, s := range m {
		out = append(out, s.PollEvents()...)
	}
	return out
}

package domain

import "time"

// WindowState classifies an instant against an event's attendance
// window.
type WindowState int

const (
	WindowNotStarted WindowState = iota
	WindowActive
	WindowClosed
)

func (s WindowState) String() string {
	switch s {
	case WindowNotStarted:
		return "not_started"
	case WindowActive:
		return "active"
	case WindowClosed:
		return "closed"
	}
	return "unknown"
}

// ClassifyWindow places now relative to [start, end+grace]. Both
// boundaries are inclusive of WindowActive: a check-in at the exact
// start instant or at the last second of the grace period is accepted.
func ClassifyWindow(now, start, end time.Time, grace time.Duration) WindowState {
	if now.Before(start) {
		return WindowNotStarted
	}
	if now.After(end.Add(grace)) {
		return WindowClosed
	}
	return WindowActive
}

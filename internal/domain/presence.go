package domain

import "time"

// PresenceRecord marks that a user confirmed physical presence at an
// event. The (EventID, UserID) pair is unique: a user confirms
// presence at a given event at most once, ever. Records are created
// exactly once and never mutated.
type PresenceRecord struct {
	EventID     string
	UserID      string
	ConfirmedAt time.Time
}

// PresencePreview is one roster entry in a confirmation summary.
type PresencePreview struct {
	UserID      string
	Name        string
	PhotoURL    string
	ConfirmedAt time.Time
}

// PresenceSummary carries the total confirmation count for an event
// plus a bounded preview of the earliest confirmations.
type PresenceSummary struct {
	Users []PresencePreview
	Total int
}

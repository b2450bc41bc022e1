package domain

import "errors"

// Business outcomes surfaced to callers. These are expected results,
// not faults: services return them untouched and the transport layer
// translates them once into stable response codes.
var (
	ErrEventNotFound            = errors.New("event not found")
	ErrUserNotFound             = errors.New("user not found")
	ErrCategoryNotFound         = errors.New("category not found")
	ErrUserAlreadyExists        = errors.New("user already exists")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrPresenceAlreadyConfirmed = errors.New("presence has already been confirmed")
	ErrEventNotStarted          = errors.New("event not started")
	ErrEventFinished            = errors.New("finished event")
	ErrOutOfLocation            = errors.New("not present at the event location")
	ErrEventNameRequired        = errors.New("event name required")
	ErrInvalidEventDates        = errors.New("start date must not be after end date")
	ErrInvalidCoordinates       = errors.New("invalid coordinates")
	ErrInvalidID                = errors.New("invalid id")
)

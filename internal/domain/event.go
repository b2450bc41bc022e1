package domain

import "time"

// Event is a scheduled happening with a physical venue. The venue
// coordinates anchor the geofence check when users confirm presence.
type Event struct {
	ID          string
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Latitude    float64
	Longitude   float64
	Address     string
	City        string
	Modality    string
	CreatedBy   string
	CreatedAt   time.Time
	Categories  []Category
}

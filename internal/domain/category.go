package domain

// Category labels events for discovery listings.
type Category struct {
	ID   string
	Name string
	Slug string
}

// CategoryEvents groups events under one category for the listing
// endpoints.
type CategoryEvents struct {
	Category Category
	Events   []Event
}

package model

import "time"

// Release is a published application release, used for the update banner.
type Release struct {
	Tag         string
	Name        string
	Notes       string // Markdown body as published.
	URL         string
	PublishedAt time.Time
}

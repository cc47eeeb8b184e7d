package model

import "time"

// Episode is a single installment of a show with a scheduled air date.
// Ad slots are sold per episode; the episode owns at most one
// inventory row (see Inventory).
type Episode struct {
	ID            uint64    `json:"id"`             // episodes.id
	ShowID        uint64    `json:"show_id"`        // episodes.show_id
	Title         string    `json:"title"`          // episodes.title
	EpisodeNumber int       `json:"episode_number"` // episodes.episode_number
	AirDate       time.Time `json:"air_date"`       // episodes.air_date (DATE, UTC)
	CreatedAt     time.Time `json:"created_at"`     // episodes.created_at
	UpdatedAt     time.Time `json:"updated_at"`     // episodes.updated_at
}

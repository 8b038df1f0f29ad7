package model

import "time"

// Playlist is an ordered sequence of track ids. TrackIDs is filtered at load
// time to ids present in the catalog and is immutable afterwards.
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Owner       string    `json:"owner,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	TrackIDs    []string  `json:"trackIds"`
}

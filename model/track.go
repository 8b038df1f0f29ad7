package model

// Track represents an audio track in the media catalog. Tracks are immutable
// once loaded; identity is the id, derived from the filename in this deployment.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
}

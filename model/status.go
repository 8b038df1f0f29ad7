package model

// PlaybackState is the render-side playback state as reported by the local
// playback engine. The render controller never caches it.
type PlaybackState int

const (
	Stopped PlaybackState = iota
	Paused
	Playing
)

// String returns the state name for logging and wire encoding.
func (s PlaybackState) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case Paused:
		return "PAUSED"
	case Playing:
		return "PLAYING"
	default:
		return "UNKNOWN"
	}
}

// ParsePlaybackState maps a wire name back to a state. Unknown names map to
// Stopped, the safe default.
func ParsePlaybackState(name string) PlaybackState {
	switch name {
	case "PLAYING":
		return Playing
	case "PAUSED":
		return Paused
	default:
		return Stopped
	}
}

// PlaybackStatus is the derived transport-control status. It is computed on
// demand, never stored.
type PlaybackStatus struct {
	State          string `json:"state"`
	CurrentTrackID string `json:"currentTrackId"`
	Repeat         bool   `json:"repeat"`
}

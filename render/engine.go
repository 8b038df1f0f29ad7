package render

import "cadenza/model"

// Engine is the narrow contract of the local playback engine. The engine
// pulls audio through the supply callback from its own decoding goroutine
// and fires onExhausted when a track ends with no further chunks.
type Engine interface {
	// State reports the engine's playback state. The controller never
	// caches it, to avoid drift.
	State() model.PlaybackState
	// Configure installs the chunk supplier and the exhaustion callback
	// for the next playback. A nil chunk from the supplier means the
	// stream is done.
	Configure(supply func(size int) []byte, onExhausted func())
	// ConfirmPlayStarts starts playback and reports whether it began.
	ConfirmPlayStarts() bool
	Pause()
	Resume()
	// Stop halts playback and reports whether the stop was confirmed.
	Stop() bool
}

// CatalogRef is the remote catalog surface the controller depends on.
type CatalogRef interface {
	Ping() error
	TrackInfo(id string) (model.Track, error)
	Playlist(id string) (model.Playlist, error)
}

// SessionRef is the remote streaming-session surface the controller depends
// on. The session is leased to exactly one controller for its lifetime.
type SessionRef interface {
	Ping() error
	OpenStream(trackID string) error
	CloseStream() error
	// ReadChunk returns an empty slice with nil error when the track is
	// exhausted.
	ReadChunk(size int) ([]byte, error)
	Close() error
}

// Package render implements the render controller: the client-facing state
// machine that binds a catalog/session pair, tracks the current track,
// playlist position and history, and drives the local playback engine.
package render

import (
	"sync"

	"cadenza/fault"
	"cadenza/logger"
	"cadenza/model"
)

// Controller owns the render-side playback state. Remote control calls are
// not serialized by the transport, so every public operation takes the
// controller mutex; the chunk supplier deliberately bypasses it and talks to
// the session alone.
type Controller struct {
	mu sync.Mutex

	engine  Engine
	catalog CatalogRef
	session SessionRef

	chunkSize int

	current  *model.Track
	playlist *model.Playlist
	index    int
	repeat   bool
	history  []string
}

// NewController creates a controller driving the given engine. chunkSize is
// the read size handed to the session when the engine does not ask for a
// specific amount.
func NewController(engine Engine, chunkSize int) *Controller {
	return &Controller{engine: engine, chunkSize: chunkSize}
}

func (c *Controller) ensureBound() error {
	if c.catalog == nil || c.session == nil {
		return fault.New(fault.ServerNotBound, "no media server bound")
	}
	return nil
}

// Bind liveness-checks and stores the catalog/session pair. The pair is set
// atomically: a failed ping leaves the previous binding untouched. History is
// cleared on a successful bind.
func (c *Controller) Bind(catalog CatalogRef, session SessionRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := catalog.Ping(); err != nil {
		return fault.Newf(fault.BadReference, "media server not reachable: %v", err)
	}
	if err := session.Ping(); err != nil {
		return fault.Newf(fault.BadReference, "session not reachable: %v", err)
	}

	c.catalog = catalog
	c.session = session
	c.history = nil
	logger.Info("bound to media server")
	return nil
}

// Unbind stops playback, best-effort closes the session and clears the
// catalog/session pair. Secondary failures are logged, never propagated;
// the unbind itself always succeeds.
func (c *Controller) Unbind() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.stopLocked(); err != nil {
		logger.Warn("stop failed during unbind", logger.ErrorField(err))
	}
	if c.session != nil {
		if err := c.session.Close(); err != nil {
			logger.Warn("error closing session during unbind", logger.ErrorField(err))
		}
	}
	c.catalog = nil
	c.session = nil
	logger.Info("unbound media server")
}

// LoadTrack makes a track current, leaving playlist mode. The previous
// current track is pushed onto history before the pointer moves.
func (c *Controller) LoadTrack(trackID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureBound(); err != nil {
		return err
	}
	return c.keepPlayingState(func() error {
		if c.current != nil {
			c.history = append(c.history, c.current.ID)
		}
		track, err := c.catalog.TrackInfo(trackID)
		if err != nil {
			return err
		}
		c.current = &track
		c.playlist = nil
		c.index = 0
		logger.Info("current track set", logger.String("title", track.Title))
		return nil
	})
}

// LoadPlaylist loads a playlist, resets the position to its first track and
// clears history. An empty playlist leaves no current track.
func (c *Controller) LoadPlaylist(playlistID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureBound(); err != nil {
		return err
	}
	return c.keepPlayingState(func() error {
		playlist, err := c.catalog.Playlist(playlistID)
		if err != nil {
			return err
		}
		c.playlist = &playlist
		c.index = 0
		c.history = nil

		if len(playlist.TrackIDs) == 0 {
			c.current = nil
			logger.Info("playlist loaded but empty", logger.String("name", playlist.Name))
			return nil
		}
		track, err := c.catalog.TrackInfo(playlist.TrackIDs[0])
		if err != nil {
			return err
		}
		c.current = &track
		logger.Info("playlist loaded",
			logger.String("name", playlist.Name), logger.String("firstTrack", track.Title))
		return nil
	})
}

// CurrentTrack returns the current track, or nil if none is loaded.
func (c *Controller) CurrentTrack() *model.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	track := *c.current
	return &track
}

// keepPlayingState wraps a track-mutating operation: the engine is stopped
// before the mutation and, if it was playing beforehand, restarted on every
// exit path. A paused engine is not resumed onto the new track; a pause is a
// user intent that a track change must not override. A restore failure is
// logged and never masks the mutation's own error.
func (c *Controller) keepPlayingState(mutate func() error) error {
	initial := c.engine.State()
	if initial != model.Stopped {
		if err := c.stopLocked(); err != nil {
			return err
		}
	}
	defer func() {
		if initial == model.Playing {
			if err := c.playLocked(); err != nil {
				logger.Error("failed to restore playback after track change", logger.ErrorField(err))
			}
		}
	}()
	return mutate()
}

// Play starts or resumes playback of the current track.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureBound(); err != nil {
		return err
	}
	return c.playLocked()
}

func (c *Controller) playLocked() error {
	switch c.engine.State() {
	case model.Paused:
		c.engine.Resume()
		logger.Info("resuming playback")
		return nil
	case model.Playing:
		return fault.New(fault.AlreadyPlaying, "already playing")
	}

	if c.current == nil {
		return fault.New(fault.NoTrackLoaded, "no track loaded")
	}

	if err := c.session.OpenStream(c.current.ID); err != nil {
		if fault.Is(err, fault.BadIdentity) {
			logger.Error("error starting stream", logger.ErrorField(err))
			return fault.New(fault.StreamSetupFailed, "stream setup failed")
		}
		return err
	}

	c.configureEngine()

	if !c.engine.ConfirmPlayStarts() {
		return fault.New(fault.ConfirmPlayFailed, "failed to confirm playback")
	}
	return nil
}

// configureEngine installs the chunk supplier and exhaustion callback. The
// supplier captures the session reference and calls it directly, off the
// controller lock; faults there are logged and suppressed, never raised into
// the engine's decode path.
func (c *Controller) configureEngine() {
	sess := c.session
	supply := func(size int) []byte {
		if size <= 0 {
			size = c.chunkSize
		}
		chunk, err := sess.ReadChunk(size)
		if err != nil {
			if fault.Is(err, fault.IOFault) {
				logger.Error("read fault while supplying chunk", logger.ErrorField(err))
			} else {
				logger.Error("transport fault while supplying chunk", logger.ErrorField(err))
			}
			return nil
		}
		return chunk
	}
	c.engine.Configure(supply, c.handleExhausted)
}

// handleExhausted implements single-track repeat. It runs on the engine's
// goroutine with no caller waiting, so every failure is terminal for this
// repeat attempt only and is logged.
func (c *Controller) handleExhausted() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.repeat || c.playlist != nil {
		logger.Debug("track finished, not repeating")
		return
	}
	if c.current == nil || c.session == nil {
		return
	}

	logger.Info("track finished, repeating", logger.String("trackId", c.current.ID))
	if err := c.session.OpenStream(c.current.ID); err != nil {
		logger.Error("failed to repeat track", logger.ErrorField(err))
		return
	}
	c.configureEngine()
	if !c.engine.ConfirmPlayStarts() {
		logger.Error("failed to repeat track: playback not confirmed")
	}
}

// Pause pauses a playing engine.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.engine.State() != model.Playing {
		return fault.New(fault.NotPlaying, "not currently playing")
	}
	c.engine.Pause()
	logger.Info("paused playback")
	return nil
}

// Stop halts playback. Any open stream on the bound session is closed
// best-effort first; stop must always be attemptable.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *Controller) stopLocked() error {
	if c.session != nil {
		if err := c.session.CloseStream(); err != nil {
			logger.Warn("error closing stream during stop", logger.ErrorField(err))
		}
	}
	if !c.engine.Stop() {
		return fault.New(fault.StopNotConfirmed, "failed to confirm stop")
	}
	logger.Info("stopped")
	return nil
}

// Status reports the derived playback status.
func (c *Controller) Status() model.PlaybackStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	currentID := ""
	if c.current != nil {
		currentID = c.current.ID
	}
	return model.PlaybackStatus{
		State:          c.engine.State().String(),
		CurrentTrackID: currentID,
		Repeat:         c.repeat,
	}
}

// Next advances within the loaded playlist, wrapping to the first track when
// repeat is set. Without a playlist it is a no-op. A refused advance pops the
// just-pushed history entry back off, so a no-op leaves no trace.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playlist == nil {
		logger.Info("no playlist loaded, cannot go to next track")
		return nil
	}

	pushed := false
	if c.current != nil {
		c.history = append(c.history, c.current.ID)
		pushed = true
	}

	n := len(c.playlist.TrackIDs)
	switch {
	case c.index+1 < n:
		c.index++
	case c.repeat && n > 0:
		c.index = 0
		logger.Info("reached end of playlist, repeating from start")
	default:
		logger.Warn("reached end of playlist, no more tracks to play")
		if pushed {
			c.history = c.history[:len(c.history)-1]
		}
		return nil
	}

	trackID := c.playlist.TrackIDs[c.index]
	return c.keepPlayingState(func() error {
		track, err := c.catalog.TrackInfo(trackID)
		if err != nil {
			return err
		}
		c.current = &track
		logger.Info("advanced to next track", logger.String("title", track.Title))
		return nil
	})
}

// Previous goes back to the most recent history entry. If that track is not
// in the current playlist, the controller leaves playlist mode.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.history) == 0 {
		logger.Warn("no previous track available in history")
		return nil
	}

	lastID := c.history[len(c.history)-1]
	c.history = c.history[:len(c.history)-1]

	err := c.keepPlayingState(func() error {
		track, err := c.catalog.TrackInfo(lastID)
		if err != nil {
			return err
		}
		c.current = &track
		return nil
	})
	if err != nil {
		return err
	}

	if c.playlist != nil {
		if pos := indexOf(c.playlist.TrackIDs, lastID); pos >= 0 {
			c.index = pos
		} else {
			c.playlist = nil
			c.index = 0
		}
	}
	logger.Info("playing previous track from history", logger.String("trackId", lastID))
	return nil
}

// SetRepeat toggles repeat mode.
func (c *Controller) SetRepeat(repeat bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repeat = repeat
	logger.Info("set repeat", logger.Bool("repeat", repeat))
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

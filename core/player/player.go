// Package player provides the beep-backed implementation of the render
// engine contract. It decodes MP3 audio pulled through the configured chunk
// supplier and plays it through the system speaker.
package player

import (
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"

	"cadenza/logger"
	"cadenza/model"
)

var speakerInitialized bool

// Engine plays one configured stream at a time.
type Engine struct {
	mu          sync.Mutex
	state       model.PlaybackState
	supply      func(size int) []byte
	onExhausted func()
	ctrl        *beep.Ctrl
	streamer    beep.StreamSeekCloser
}

// New creates a stopped engine.
func New() *Engine {
	return &Engine{state: model.Stopped}
}

// chunkReader adapts the pull callback to io.Reader. An empty pull means the
// stream is exhausted.
type chunkReader struct {
	supply func(size int) []byte
	buf    []byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		chunk := r.supply(len(p))
		if len(chunk) == 0 {
			return 0, io.EOF
		}
		r.buf = chunk
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *chunkReader) Close() error { return nil }

// State reports the current playback state.
func (e *Engine) State() model.PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Configure installs the callbacks for the next playback.
func (e *Engine) Configure(supply func(size int) []byte, onExhausted func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.supply = supply
	e.onExhausted = onExhausted
}

// ConfirmPlayStarts decodes the configured stream and starts playback.
func (e *Engine) ConfirmPlayStarts() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.supply == nil {
		logger.Error("engine not configured")
		return false
	}
	e.clearLocked()

	streamer, format, err := mp3.Decode(&chunkReader{supply: e.supply})
	if err != nil {
		logger.Error("failed to decode stream", logger.ErrorField(err))
		return false
	}

	if !speakerInitialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			logger.Error("failed to initialize speaker", logger.ErrorField(err))
			streamer.Close()
			return false
		}
		speakerInitialized = true
	}

	e.streamer = streamer
	e.ctrl = &beep.Ctrl{Streamer: streamer}
	e.state = model.Playing

	onExhausted := e.onExhausted
	speaker.Play(beep.Seq(e.ctrl, beep.Callback(func() {
		e.onStreamDone(onExhausted)
	})))
	return true
}

// onStreamDone runs as the beep sequence callback, inside the speaker's
// mixing loop with the speaker mutex held. Pause, Resume and Stop take e.mu
// before the speaker mutex, so touching e.mu here would deadlock; the state
// update and the exhaustion hand-off both run on a fresh goroutine.
func (e *Engine) onStreamDone(onExhausted func()) {
	go func() {
		e.mu.Lock()
		e.state = model.Stopped
		e.mu.Unlock()
		if onExhausted != nil {
			onExhausted()
		}
	}()
}

// Pause pauses a playing stream.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != model.Playing || e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
	e.state = model.Paused
}

// Resume resumes a paused stream.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != model.Paused || e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
	e.state = model.Playing
}

// Stop halts playback. Always confirmed.
func (e *Engine) Stop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked()
	e.state = model.Stopped
	return true
}

func (e *Engine) clearLocked() {
	if e.streamer == nil {
		return
	}
	speaker.Clear()
	e.streamer.Close()
	e.streamer = nil
	e.ctrl = nil
}

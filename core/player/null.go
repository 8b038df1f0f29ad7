package player

import (
	"sync"
	"time"

	"cadenza/model"
	"cadenza/render"
)

// NullEngine drains the configured stream without an audio device. It is the
// engine used when the render daemon runs headless.
type NullEngine struct {
	mu          sync.Mutex
	state       model.PlaybackState
	supply      func(size int) []byte
	onExhausted func()
	generation  int
}

// NewNull creates a stopped headless engine.
func NewNull() *NullEngine {
	return &NullEngine{state: model.Stopped}
}

func (e *NullEngine) State() model.PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *NullEngine) Configure(supply func(size int) []byte, onExhausted func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.supply = supply
	e.onExhausted = onExhausted
}

func (e *NullEngine) ConfirmPlayStarts() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.supply == nil {
		return false
	}
	e.generation++
	gen := e.generation
	e.state = model.Playing

	supply, onExhausted := e.supply, e.onExhausted
	go e.drain(gen, supply, onExhausted)
	return true
}

// drain pulls chunks at a pace loosely resembling real playback until the
// stream is exhausted or this generation is superseded.
func (e *NullEngine) drain(gen int, supply func(size int) []byte, onExhausted func()) {
	for {
		time.Sleep(50 * time.Millisecond)

		e.mu.Lock()
		if e.generation != gen || e.state == model.Stopped {
			e.mu.Unlock()
			return
		}
		if e.state == model.Paused {
			e.mu.Unlock()
			continue
		}
		e.mu.Unlock()

		if chunk := supply(0); len(chunk) == 0 {
			e.mu.Lock()
			if e.generation == gen {
				e.state = model.Stopped
			}
			e.mu.Unlock()
			if onExhausted != nil {
				onExhausted()
			}
			return
		}
	}
}

func (e *NullEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == model.Playing {
		e.state = model.Paused
	}
}

func (e *NullEngine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == model.Paused {
		e.state = model.Playing
	}
}

func (e *NullEngine) Stop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.state = model.Stopped
	return true
}

// Both engines satisfy the render engine contract.
var (
	_ render.Engine = (*Engine)(nil)
	_ render.Engine = (*NullEngine)(nil)
)

package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cadenza/model"
)

// The stream-done callback fires on the speaker's mixing goroutine with the
// speaker mutex held, while a control call may be holding the engine lock
// and waiting for that same speaker mutex. It must therefore return without
// ever taking e.mu itself.
func TestStreamDone_ReturnsWhileEngineLockHeld(t *testing.T) {
	e := New()
	e.mu.Lock()
	e.state = model.Playing

	exhausted := make(chan struct{})
	returned := make(chan struct{})
	go func() {
		e.onStreamDone(func() { close(exhausted) })
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		e.mu.Unlock()
		t.Fatal("stream-done callback blocked while the engine lock was held")
	}
	e.mu.Unlock()

	select {
	case <-exhausted:
	case <-time.After(time.Second):
		t.Fatal("exhaustion hand-off never ran")
	}
	assert.Equal(t, model.Stopped, e.State())
}

func TestStreamDone_NilExhaustionCallback(t *testing.T) {
	e := New()
	e.mu.Lock()
	e.state = model.Playing
	e.mu.Unlock()

	e.onStreamDone(nil)

	deadline := time.After(time.Second)
	for e.State() != model.Stopped {
		select {
		case <-deadline:
			t.Fatal("state never settled to stopped")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

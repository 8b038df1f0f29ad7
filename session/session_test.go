package session

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cadenza/catalog"
	"cadenza/fault"
	"cadenza/model"
)

func newTestLibrary(t *testing.T) (*catalog.Library, string) {
	t.Helper()
	root := t.TempDir()
	mediaDir := filepath.Join(root, "media")
	require.NoError(t, os.MkdirAll(mediaDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(mediaDir, "t1.mp3"), []byte("hello world!"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(mediaDir, "t2.mp3"), []byte("second"), 0644))

	lib, err := catalog.Load(mediaDir, filepath.Join(root, "playlists"), filepath.Join(root, "users.json"))
	require.NoError(t, err)
	return lib, mediaDir
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	lib, _ := newTestLibrary(t)
	return New(model.UserInfo{Username: "alice"}, lib)
}

func TestOpenStream_UnknownTrack(t *testing.T) {
	s := newTestSession(t)

	err := s.OpenStream("ghost.mp3")
	assert.True(t, fault.Is(err, fault.TrackNotFound))
}

func TestReadChunk_NoOpenStream(t *testing.T) {
	s := newTestSession(t)

	_, err := s.ReadChunk(16)
	assert.True(t, fault.Is(err, fault.NoOpenStream))
}

func TestReadChunk_ReadsAndExhausts(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.OpenStream("t1.mp3"))

	var got []byte
	for {
		chunk, err := s.ReadChunk(5)
		require.NoError(t, err)
		if len(chunk) == 0 {
			break
		}
		got = append(got, chunk...)
	}
	assert.Equal(t, "hello world!", string(got))

	// Exhaustion closed the cursor; the next read is a fault, not another
	// empty chunk.
	_, err := s.ReadChunk(5)
	assert.True(t, fault.Is(err, fault.NoOpenStream))
}

func TestReadChunk_RejectsNonPositiveSize(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.OpenStream("t1.mp3"))

	_, err := s.ReadChunk(0)
	assert.Error(t, err)
	_, err = s.ReadChunk(-1)
	assert.Error(t, err)

	// The cursor is untouched: a zero-size read must not be mistaken for
	// exhaustion, and the stream still serves from the start.
	chunk, err := s.ReadChunk(5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(chunk))
}

func TestOpenStream_ClosesPreviousCursor(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.OpenStream("t1.mp3"))

	chunk, err := s.ReadChunk(5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(chunk))

	// Reopening on another track must start it from the beginning, with no
	// bytes left over from the first cursor.
	require.NoError(t, s.OpenStream("t2.mp3"))
	chunk, err = s.ReadChunk(64)
	require.NoError(t, err)
	assert.Equal(t, "second", string(chunk))
}

func TestOpenStream_MissingFile(t *testing.T) {
	lib, mediaDir := newTestLibrary(t)
	s := New(model.UserInfo{Username: "alice"}, lib)

	// The catalog still lists the track; the backing file is gone.
	require.NoError(t, os.Remove(filepath.Join(mediaDir, "t2.mp3")))

	err := s.OpenStream("t2.mp3")
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fault.IOFault, fe.Kind)
	assert.Equal(t, "t2.mp3", fe.Filename)
}

func TestCloseStream_Idempotent(t *testing.T) {
	s := newTestSession(t)

	s.CloseStream()
	require.NoError(t, s.OpenStream("t1.mp3"))
	s.CloseStream()
	s.CloseStream()

	_, err := s.ReadChunk(5)
	assert.True(t, fault.Is(err, fault.NoOpenStream))
}

func TestClose_RetiresAddress(t *testing.T) {
	lib, _ := newTestLibrary(t)
	s := New(model.UserInfo{Username: "alice"}, lib)
	registry := NewRegistry()
	id := registry.Add(s)

	_, err := registry.Get(id)
	require.NoError(t, err)

	s.Close()

	_, err = registry.Get(id)
	assert.True(t, fault.Is(err, fault.SessionClosed))

	// The reference is permanently invalid.
	err = s.OpenStream("t1.mp3")
	assert.True(t, fault.Is(err, fault.SessionClosed))
	s.Close() // idempotent
}

func TestRegistry_RemoveIdempotent(t *testing.T) {
	registry := NewRegistry()
	registry.Remove("never-there")

	_, err := registry.Get("never-there")
	assert.True(t, fault.Is(err, fault.SessionClosed))
}

func TestReadChunk_ConcurrentWithCloseAndReopen(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.OpenStream("t1.mp3"))

	var wg sync.WaitGroup
	wg.Add(2)

	// Reader in the engine's role: pulls until the stream disappears.
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			chunk, err := s.ReadChunk(3)
			if err != nil || len(chunk) == 0 {
				continue
			}
		}
	}()

	// Control path closing and reopening underneath it.
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			s.CloseStream()
			_ = s.OpenStream("t2.mp3")
		}
	}()

	wg.Wait()
	s.CloseStream()
}

func TestUserInfo_Accessor(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, "alice", s.UserInfo().Username)
}

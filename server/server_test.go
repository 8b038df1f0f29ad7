package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cadenza/catalog"
	"cadenza/client"
	"cadenza/config"
	"cadenza/core/auth"
	"cadenza/fault"
	"cadenza/server"
	"cadenza/session"
)

// startTestServer brings up the full media server over httptest and returns a
// catalog client pointed at it, plus the server's base URL.
func startTestServer(t *testing.T) (*client.CatalogClient, string) {
	t.Helper()
	root := t.TempDir()
	mediaDir := filepath.Join(root, "media")
	playlistDir := filepath.Join(root, "playlists")
	require.NoError(t, os.MkdirAll(mediaDir, 0755))
	require.NoError(t, os.MkdirAll(playlistDir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(mediaDir, "t1.mp3"), []byte("twelve bytes"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(mediaDir, "t2.mp3"), []byte("more audio"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(playlistDir, "p1.playlist"),
		[]byte(`{"id": "p1", "name": "Morning", "track_ids": ["t1.mp3", "t2.mp3"]}`), 0644))

	usersFile := filepath.Join(root, "users.json")
	users := `{
		"alice": {
			"salt": "pepper",
			"digest": "` + auth.ComputeDigest("secret", "pepper") + `",
			"fullname": "Alice Example",
			"email": "alice@example.com",
			"is_premium": true,
			"created_at": "2020-01-02T03:04:05Z"
		}
	}`
	require.NoError(t, os.WriteFile(usersFile, []byte(users), 0644))

	library, err := catalog.Load(mediaDir, playlistDir, usersFile)
	require.NoError(t, err)

	cfg := &config.Config{
		MediaDir:    mediaDir,
		PlaylistDir: playlistDir,
		UsersFile:   usersFile,
		TokenSecret: "test-secret",
		ChunkSize:   4,
	}
	handler := server.NewAPIHandler(library, session.NewRegistry(), cfg)

	ts := httptest.NewServer(server.NewRouter(handler))
	t.Cleanup(ts.Close)
	return client.NewCatalogClient(ts.URL), ts.URL
}

// rawAuthenticate posts credentials directly so the test can see the minted
// session id and token, which the client type keeps to itself.
func rawAuthenticate(t *testing.T, baseURL, username, password string) client.AuthResponse {
	t.Helper()
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	require.NoError(t, err)

	resp, err := http.Post(baseURL+"/api/auth/session", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var minted client.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&minted))
	return minted
}

func TestCatalog_Ping(t *testing.T) {
	cat, _ := startTestServer(t)
	assert.NoError(t, cat.Ping())
}

func TestCatalog_Listing(t *testing.T) {
	cat, _ := startTestServer(t)

	tracks, err := cat.AllTracks()
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "t1.mp3", tracks[0].ID)
	assert.Equal(t, "t1", tracks[0].Title)

	playlists, err := cat.AllPlaylists()
	require.NoError(t, err)
	require.Len(t, playlists, 1)
	assert.Equal(t, []string{"t1.mp3", "t2.mp3"}, playlists[0].TrackIDs)
}

func TestCatalog_SingleLookups(t *testing.T) {
	cat, _ := startTestServer(t)

	track, err := cat.TrackInfo("t2.mp3")
	require.NoError(t, err)
	assert.Equal(t, "t2", track.Title)

	playlist, err := cat.Playlist("p1")
	require.NoError(t, err)
	assert.Equal(t, "Morning", playlist.Name)

	_, err = cat.TrackInfo("ghost.mp3")
	assert.True(t, fault.Is(err, fault.TrackNotFound))

	_, err = cat.Playlist("ghost")
	assert.True(t, fault.Is(err, fault.PlaylistNotFound))
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	cat, _ := startTestServer(t)

	_, err := cat.Authenticate("alice", "wrong")
	assert.True(t, fault.Is(err, fault.AuthFailed))

	_, err = cat.Authenticate("mallory", "secret")
	assert.True(t, fault.Is(err, fault.AuthFailed))
}

func TestAuthenticate_MintsUsableSession(t *testing.T) {
	cat, _ := startTestServer(t)

	sess, err := cat.Authenticate("alice", "secret")
	require.NoError(t, err)
	require.NoError(t, sess.Ping())

	user, err := sess.UserInfo()
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice Example", user.Fullname)
	assert.True(t, user.IsPremium)
}

func TestStream_ChunksUntilExhaustion(t *testing.T) {
	cat, _ := startTestServer(t)
	sess, err := cat.Authenticate("alice", "secret")
	require.NoError(t, err)

	require.NoError(t, sess.OpenStream("t1.mp3"))

	var got []byte
	for {
		chunk, err := sess.ReadChunk(5)
		require.NoError(t, err)
		if len(chunk) == 0 {
			break
		}
		got = append(got, chunk...)
	}
	assert.Equal(t, "twelve bytes", string(got))

	// Exhaustion closed the stream on the server side.
	_, err = sess.ReadChunk(5)
	assert.True(t, fault.Is(err, fault.NoOpenStream))
}

func TestStream_OpenUnknownTrack(t *testing.T) {
	cat, _ := startTestServer(t)
	sess, err := cat.Authenticate("alice", "secret")
	require.NoError(t, err)

	err = sess.OpenStream("ghost.mp3")
	assert.True(t, fault.Is(err, fault.TrackNotFound))
}

func TestStream_ReadWithoutOpen(t *testing.T) {
	cat, _ := startTestServer(t)
	sess, err := cat.Authenticate("alice", "secret")
	require.NoError(t, err)

	_, err = sess.ReadChunk(5)
	assert.True(t, fault.Is(err, fault.NoOpenStream))
}

func TestStream_CloseStreamIdempotent(t *testing.T) {
	cat, _ := startTestServer(t)
	sess, err := cat.Authenticate("alice", "secret")
	require.NoError(t, err)

	require.NoError(t, sess.OpenStream("t1.mp3"))
	require.NoError(t, sess.CloseStream())
	require.NoError(t, sess.CloseStream())

	_, err = sess.ReadChunk(5)
	assert.True(t, fault.Is(err, fault.NoOpenStream))
}

func TestSession_CloseRetiresAddress(t *testing.T) {
	cat, _ := startTestServer(t)
	sess, err := cat.Authenticate("alice", "secret")
	require.NoError(t, err)

	require.NoError(t, sess.Close())

	// Ping is a HEAD request, so only the failure itself is visible; the
	// typed fault comes back on bodied requests.
	assert.Error(t, sess.Ping())

	_, err = sess.UserInfo()
	assert.True(t, fault.Is(err, fault.SessionClosed))
}

func TestSession_TokenGuards(t *testing.T) {
	_, baseURL := startTestServer(t)

	first := rawAuthenticate(t, baseURL, "alice", "secret")
	second := rawAuthenticate(t, baseURL, "alice", "secret")
	require.NotEqual(t, first.SessionID, second.SessionID)

	// Garbage token.
	forged := client.NewSessionClient(baseURL, second.SessionID, "not.a.token")
	_, err := forged.UserInfo()
	assert.True(t, fault.Is(err, fault.BadIdentity))

	// Missing token.
	bare := client.NewSessionClient(baseURL, second.SessionID, "")
	_, err = bare.UserInfo()
	assert.True(t, fault.Is(err, fault.BadIdentity))

	// Valid token presented against a different session address.
	crossed := client.NewSessionClient(baseURL, second.SessionID, first.Token)
	_, err = crossed.UserInfo()
	assert.True(t, fault.Is(err, fault.BadIdentity))

	// The rightful token still works.
	owner := client.NewSessionClient(baseURL, second.SessionID, second.Token)
	assert.NoError(t, owner.Ping())
}

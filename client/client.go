// Package client provides HTTP implementations of the remote references the
// render controller consumes: the media server catalog and a leased
// streaming session.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cadenza/fault"
	"cadenza/model"
)

const requestTimeout = 10 * time.Second

// doJSON performs a request and decodes a JSON response into out (when out
// is non-nil). Non-2xx responses are decoded into typed faults.
func doJSON(httpClient *http.Client, method, rawURL, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, rawURL, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fault.Newf(fault.BadReference, "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fault.FromResponse(resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// CatalogClient talks to the media server's catalog and auth surface.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCatalogClient creates a client for the media server at baseURL.
func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Ping checks the server is reachable.
func (c *CatalogClient) Ping() error {
	return doJSON(c.httpClient, http.MethodGet, c.baseURL+"/api/ping", "", nil, nil)
}

// AllTracks lists every track in the catalog.
func (c *CatalogClient) AllTracks() ([]model.Track, error) {
	var tracks []model.Track
	err := doJSON(c.httpClient, http.MethodGet, c.baseURL+"/api/tracks", "", nil, &tracks)
	return tracks, err
}

// TrackInfo fetches one track by id.
func (c *CatalogClient) TrackInfo(id string) (model.Track, error) {
	var track model.Track
	err := doJSON(c.httpClient, http.MethodGet,
		c.baseURL+"/api/tracks/"+url.PathEscape(id), "", nil, &track)
	return track, err
}

// AllPlaylists lists every playlist.
func (c *CatalogClient) AllPlaylists() ([]model.Playlist, error) {
	var playlists []model.Playlist
	err := doJSON(c.httpClient, http.MethodGet, c.baseURL+"/api/playlists", "", nil, &playlists)
	return playlists, err
}

// Playlist fetches one playlist by id.
func (c *CatalogClient) Playlist(id string) (model.Playlist, error) {
	var playlist model.Playlist
	err := doJSON(c.httpClient, http.MethodGet,
		c.baseURL+"/api/playlists/"+url.PathEscape(id), "", nil, &playlist)
	return playlist, err
}

// AuthResponse is the payload returned by a successful authentication.
type AuthResponse struct {
	SessionID string         `json:"sessionId"`
	Token     string         `json:"token"`
	User      model.UserInfo `json:"user"`
}

// Authenticate verifies credentials against the media server and returns a
// client for the freshly minted streaming session.
func (c *CatalogClient) Authenticate(username, password string) (*SessionClient, error) {
	body := map[string]string{"username": username, "password": password}
	var auth AuthResponse
	if err := doJSON(c.httpClient, http.MethodPost, c.baseURL+"/api/auth/session", "", body, &auth); err != nil {
		return nil, err
	}
	return NewSessionClient(c.baseURL, auth.SessionID, auth.Token), nil
}

// SessionClient talks to one streaming session on the media server. The
// session is leased to a single render controller for its lifetime.
type SessionClient struct {
	baseURL    string
	sessionID  string
	token      string
	httpClient *http.Client
}

// NewSessionClient creates a client for an existing session. The token is
// the bearer token minted at authenticate time.
func NewSessionClient(baseURL, sessionID, token string) *SessionClient {
	return &SessionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessionID:  sessionID,
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func (s *SessionClient) url(suffix string) string {
	return fmt.Sprintf("%s/api/sessions/%s%s", s.baseURL, url.PathEscape(s.sessionID), suffix)
}

// Ping checks the session is still addressable.
func (s *SessionClient) Ping() error {
	return doJSON(s.httpClient, http.MethodHead, s.url(""), s.token, nil, nil)
}

// UserInfo fetches the owning user's profile.
func (s *SessionClient) UserInfo() (model.UserInfo, error) {
	var user model.UserInfo
	err := doJSON(s.httpClient, http.MethodGet, s.url("/user"), s.token, nil, &user)
	return user, err
}

// OpenStream opens the session's cursor on a track.
func (s *SessionClient) OpenStream(trackID string) error {
	body := map[string]string{"trackId": trackID}
	return doJSON(s.httpClient, http.MethodPost, s.url("/stream"), s.token, body, nil)
}

// CloseStream closes the session's cursor.
func (s *SessionClient) CloseStream() error {
	return doJSON(s.httpClient, http.MethodDelete, s.url("/stream"), s.token, nil, nil)
}

// ReadChunk reads up to size bytes from the open cursor. An empty slice with
// a nil error means the track is exhausted.
func (s *SessionClient) ReadChunk(size int) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, s.url("/chunk?size="+strconv.Itoa(size)), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fault.Newf(fault.BadReference, "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fault.FromResponse(resp)
	}
	return io.ReadAll(resp.Body)
}

// Close retires the session. The reference is invalid afterwards.
func (s *SessionClient) Close() error {
	return doJSON(s.httpClient, http.MethodDelete, s.url(""), s.token, nil, nil)
}

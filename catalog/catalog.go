// Package catalog owns the read-mostly library of tracks and playlists and
// the user credential store backing authentication.
package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"cadenza/core/auth"
	"cadenza/fault"
	"cadenza/logger"
	"cadenza/model"
)

const (
	playlistDateLayout = "02-01-2006"
	userDateLayout     = "2006-01-02T15:04:05Z"
)

// userRecord is the on-disk shape of one entry in the users file.
type userRecord struct {
	Salt      string `json:"salt"`
	Digest    string `json:"digest"`
	Fullname  string `json:"fullname"`
	Email     string `json:"email"`
	IsPremium bool   `json:"is_premium"`
	CreatedAt string `json:"created_at"`
}

// playlistFile is the on-disk shape of a .playlist sidecar.
type playlistFile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Owner       string   `json:"owner"`
	CreatedAt   string   `json:"created_at"`
	TrackIDs    []string `json:"track_ids"`
}

// Library is the in-memory catalog. Tracks and playlists are replaced
// wholesale on reload; readers always see a consistent pair.
type Library struct {
	mediaDir    string
	playlistDir string
	usersFile   string

	mu        sync.RWMutex
	tracks    map[string]model.Track
	playlists map[string]model.Playlist
	users     map[string]userRecord
}

// Load builds a library from the media directory, the playlist directory and
// the users file. Missing playlist dir or users file degrade to an empty set.
func Load(mediaDir, playlistDir, usersFile string) (*Library, error) {
	lib := &Library{
		mediaDir:    mediaDir,
		playlistDir: playlistDir,
		usersFile:   usersFile,
		tracks:      map[string]model.Track{},
		playlists:   map[string]model.Playlist{},
		users:       map[string]userRecord{},
	}
	if err := lib.Reload(); err != nil {
		return nil, err
	}
	lib.loadUsers()
	return lib, nil
}

// Reload rescans the media and playlist directories. Users are not reloaded;
// credential changes require a restart. Playlist track ids are filtered
// against the freshly scanned track set so the two stay consistent.
func (l *Library) Reload() error {
	tracks, err := scanMedia(l.mediaDir)
	if err != nil {
		return err
	}
	playlists := scanPlaylists(l.playlistDir, tracks)

	l.mu.Lock()
	l.tracks = tracks
	l.playlists = playlists
	l.mu.Unlock()

	logger.Info("catalog loaded",
		logger.Int("tracks", len(tracks)),
		logger.Int("playlists", len(playlists)))
	return nil
}

func scanMedia(dir string) (map[string]model.Track, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fault.IOError(dir, err)
	}
	tracks := make(map[string]model.Track)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			continue
		}
		name := entry.Name()
		tracks[name] = model.Track{
			ID:       name,
			Title:    strings.TrimSuffix(name, filepath.Ext(name)),
			Filename: name,
		}
	}
	return tracks, nil
}

func scanPlaylists(dir string, tracks map[string]model.Track) map[string]model.Playlist {
	playlists := make(map[string]model.Playlist)
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("playlist directory not readable", logger.String("dir", dir), logger.ErrorField(err))
		return playlists
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".playlist") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("failed to read playlist file", logger.String("file", entry.Name()), logger.ErrorField(err))
			continue
		}
		var pf playlistFile
		if err := json.Unmarshal(data, &pf); err != nil || pf.ID == "" || pf.Name == "" {
			logger.Error("malformed playlist file", logger.String("file", entry.Name()), logger.ErrorField(err))
			continue
		}

		createdAt := time.Unix(0, 0).UTC()
		if pf.CreatedAt != "" {
			if t, err := time.Parse(playlistDateLayout, pf.CreatedAt); err == nil {
				createdAt = t
			} else {
				logger.Warn("playlist created_at is not DD-MM-YYYY, using epoch",
					logger.String("file", entry.Name()), logger.String("value", pf.CreatedAt))
			}
		}

		valid := make([]string, 0, len(pf.TrackIDs))
		for _, tid := range pf.TrackIDs {
			if _, ok := tracks[tid]; ok {
				valid = append(valid, tid)
			} else {
				logger.Debug("dropping unknown track id from playlist",
					logger.String("playlist", pf.ID), logger.String("trackId", tid))
			}
		}

		playlists[pf.ID] = model.Playlist{
			ID:          pf.ID,
			Name:        pf.Name,
			Description: pf.Description,
			Owner:       pf.Owner,
			CreatedAt:   createdAt,
			TrackIDs:    valid,
		}
	}
	return playlists
}

func (l *Library) loadUsers() {
	data, err := os.ReadFile(l.usersFile)
	if err != nil {
		logger.Warn("users file not found", logger.String("file", l.usersFile), logger.ErrorField(err))
		return
	}
	users := make(map[string]userRecord)
	if err := json.Unmarshal(data, &users); err != nil {
		logger.Error("failed to parse users file", logger.String("file", l.usersFile), logger.ErrorField(err))
		return
	}

	l.mu.Lock()
	l.users = users
	l.mu.Unlock()

	logger.Info("users loaded", logger.Int("count", len(users)))
}

// MediaDir returns the root directory of the audio files.
func (l *Library) MediaDir() string {
	return l.mediaDir
}

// AllTracks returns every track in the catalog, sorted by id.
func (l *Library) AllTracks() []model.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tracks := make([]model.Track, 0, len(l.tracks))
	for _, t := range l.tracks {
		tracks = append(tracks, t)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })
	return tracks
}

// Track resolves a track id.
func (l *Library) Track(id string) (model.Track, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.tracks[id]
	if !ok {
		return model.Track{}, fault.Newf(fault.TrackNotFound, "track %q not found", id)
	}
	return t, nil
}

// AllPlaylists returns every playlist, sorted by id.
func (l *Library) AllPlaylists() []model.Playlist {
	l.mu.RLock()
	defer l.mu.RUnlock()
	playlists := make([]model.Playlist, 0, len(l.playlists))
	for _, p := range l.playlists {
		playlists = append(playlists, p)
	}
	sort.Slice(playlists, func(i, j int) bool { return playlists[i].ID < playlists[j].ID })
	return playlists
}

// Playlist resolves a playlist id.
func (l *Library) Playlist(id string) (model.Playlist, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.playlists[id]
	if !ok {
		return model.Playlist{}, fault.Newf(fault.PlaylistNotFound, "playlist %q not found", id)
	}
	return p, nil
}

// Authenticate verifies the credentials and returns the user's profile.
// Unknown user and bad password return the same fault so callers cannot
// probe for account existence; the log line keeps the distinction.
func (l *Library) Authenticate(username, password string) (model.UserInfo, error) {
	l.mu.RLock()
	rec, ok := l.users[username]
	l.mu.RUnlock()

	if !ok {
		logger.Warn("authentication failed: unknown user", logger.String("username", username))
		return model.UserInfo{}, fault.New(fault.AuthFailed, "invalid credentials")
	}
	if !auth.VerifyDigest(password, rec.Salt, rec.Digest) {
		logger.Warn("authentication failed: bad password", logger.String("username", username))
		return model.UserInfo{}, fault.New(fault.AuthFailed, "invalid credentials")
	}

	createdAt := time.Unix(0, 0).UTC()
	if rec.CreatedAt != "" {
		if t, err := time.Parse(userDateLayout, rec.CreatedAt); err == nil {
			createdAt = t
		} else {
			logger.Warn("user created_at is not ISO-8601 UTC, using epoch",
				logger.String("username", username), logger.String("value", rec.CreatedAt))
		}
	}

	return model.UserInfo{
		Username:  username,
		Fullname:  rec.Fullname,
		Email:     rec.Email,
		IsPremium: rec.IsPremium,
		CreatedAt: createdAt,
	}, nil
}

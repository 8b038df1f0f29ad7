// Package session implements per-user streaming sessions. A session owns at
// most one open file cursor and serves chunked reads from it. Chunk reads
// arrive from the playback engine's goroutine while control calls may close
// or reopen the stream, so every cursor operation holds the session mutex as
// a unit.
package session

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"cadenza/catalog"
	"cadenza/fault"
	"cadenza/logger"
	"cadenza/model"
)

// cursor is the open byte source for one track. It is owned exclusively by
// its session and never shared.
type cursor struct {
	track model.Track
	file  *os.File
}

func (c *cursor) close() {
	if err := c.file.Close(); err != nil {
		logger.Error("error closing media file",
			logger.String("trackId", c.track.ID), logger.ErrorField(err))
	}
}

// Session is a per-authenticated-user streaming object.
type Session struct {
	user    model.UserInfo
	library *catalog.Library

	mu     sync.Mutex
	cursor *cursor
	closed bool

	onClose func() // unregisters the session's remote address
}

// New creates a session scoped to a user and the catalog's media root.
func New(user model.UserInfo, library *catalog.Library) *Session {
	logger.Info("new session created", logger.String("username", user.Username))
	return &Session{user: user, library: library}
}

// UserInfo returns the owning user's profile.
func (s *Session) UserInfo() model.UserInfo {
	return s.user
}

// OpenStream opens the byte source for a track. An already open cursor is
// closed first, so the session never holds two.
func (s *Session) OpenStream(trackID string) error {
	track, err := s.library.Track(trackID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fault.New(fault.SessionClosed, "session is closed")
	}
	if s.cursor != nil {
		s.cursor.close()
		s.cursor = nil
	}

	path := filepath.Join(s.library.MediaDir(), track.Filename)
	file, err := os.Open(path)
	if err != nil {
		return fault.IOError(track.Filename, err)
	}
	s.cursor = &cursor{track: track, file: file}

	logger.Info("open stream", logger.String("trackId", trackID),
		logger.String("username", s.user.Username))
	return nil
}

// ReadChunk reads up to size bytes from the open cursor. An exhausted track
// yields one empty, non-error chunk and implicitly closes the cursor; the
// next call fails with NoOpenStream. A read error closes the cursor and
// surfaces as IOFault. Size must be positive: an empty chunk is reserved for
// exhaustion, so a zero-byte read cannot be served.
func (s *Session) ReadChunk(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fault.Newf(fault.Internal, "chunk size must be positive, got %d", size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == nil {
		return nil, fault.New(fault.NoOpenStream, "no open stream for session")
	}

	buf := make([]byte, size)
	n, err := s.cursor.file.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil || err == io.EOF {
		logger.Info("track exhausted", logger.String("trackId", s.cursor.track.ID))
		s.cursor.close()
		s.cursor = nil
		return []byte{}, nil
	}

	filename := s.cursor.track.Filename
	s.cursor.close()
	s.cursor = nil
	return nil, fault.IOError(filename, err)
}

// CloseStream closes the open cursor, if any. Idempotent.
func (s *Session) CloseStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeStreamLocked()
}

func (s *Session) closeStreamLocked() {
	if s.cursor != nil {
		s.cursor.close()
		s.cursor = nil
		logger.Info("closed stream", logger.String("username", s.user.Username))
	}
}

// Close closes the stream and retires the session's remote address. After
// Close the session reference is permanently invalid.
func (s *Session) Close() {
	s.mu.Lock()
	s.closeStreamLocked()
	alreadyClosed := s.closed
	s.closed = true
	s.mu.Unlock()

	if !alreadyClosed {
		logger.Info("session closed", logger.String("username", s.user.Username))
		if s.onClose != nil {
			s.onClose()
		}
	}
}

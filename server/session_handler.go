package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"cadenza/core/auth"
	"cadenza/fault"
	"cadenza/session"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionAuth guards session routes: the bearer token must be valid and
// bound to the addressed session. A retired address yields SessionClosed.
func (h *APIHandler) SessionAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["id"]

		authHeader := r.Header.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			fault.WriteHTTP(w, fault.New(fault.BadIdentity, "missing or malformed bearer token"))
			return
		}
		claims, err := auth.ParseSessionToken(parts[1], h.cfg.TokenSecret)
		if err != nil {
			fault.WriteHTTP(w, fault.New(fault.BadIdentity, "invalid session token"))
			return
		}
		if claims.SessionID != sessionID {
			fault.WriteHTTP(w, fault.New(fault.BadIdentity, "token not issued for this session"))
			return
		}

		sess, err := h.sessions.Get(sessionID)
		if err != nil {
			fault.WriteHTTP(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(sessionKey).(*session.Session)
}

// PingSessionHandler answers session liveness checks.
func (h *APIHandler) PingSessionHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// GetUserInfoHandler returns the session owner's profile.
func (h *APIHandler) GetUserInfoHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).UserInfo())
}

// OpenStreamRequest is the open-stream request body.
type OpenStreamRequest struct {
	TrackID string `json:"trackId"`
}

// OpenStreamHandler opens the session's cursor on a track, closing any
// previously open cursor first.
func (h *APIHandler) OpenStreamHandler(w http.ResponseWriter, r *http.Request) {
	var req OpenStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fault.WriteHTTP(w, fault.New(fault.BadIdentity, "invalid request body"))
		return
	}
	if err := sessionFrom(r).OpenStream(req.TrackID); err != nil {
		fault.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "open"})
}

// CloseStreamHandler closes the session's cursor. Idempotent.
func (h *APIHandler) CloseStreamHandler(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).CloseStream()
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// GetChunkHandler reads up to size bytes from the open cursor and returns
// them raw. An exhausted track yields an empty 200 body exactly once; the
// next read fails with NoOpenStream.
func (h *APIHandler) GetChunkHandler(w http.ResponseWriter, r *http.Request) {
	size := h.cfg.ChunkSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			size = parsed
		}
	}

	chunk, err := sessionFrom(r).ReadChunk(size)
	if err != nil {
		fault.WriteHTTP(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(chunk)
}

// CloseSessionHandler retires the session; its address becomes permanently
// invalid.
func (h *APIHandler) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Close()
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// Package fault defines the typed error taxonomy shared by the media server,
// the streaming sessions and the render controller, plus the HTTP glue that
// carries a fault across a remote call without losing its kind.
package fault

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Kind identifies a fault category. Kinds are stable wire names.
type Kind string

const (
	TrackNotFound    Kind = "TrackNotFound"
	PlaylistNotFound Kind = "PlaylistNotFound"
	AuthFailed       Kind = "AuthFailed"
	NoOpenStream     Kind = "NoOpenStream"
	IOFault          Kind = "IOFault"
	BadReference     Kind = "BadReference"
	BadIdentity      Kind = "BadIdentity"
	SessionClosed    Kind = "SessionClosed"

	ServerNotBound    Kind = "ServerNotBound"
	NoTrackLoaded     Kind = "NoTrackLoaded"
	AlreadyPlaying    Kind = "AlreadyPlaying"
	NotPlaying        Kind = "NotPlaying"
	StreamSetupFailed Kind = "StreamSetupFailed"
	ConfirmPlayFailed Kind = "ConfirmPlayFailed"
	StopNotConfirmed  Kind = "StopNotConfirmed"

	Internal Kind = "Internal"
)

// Error is a typed fault. Filename is set only for IOFault.
type Error struct {
	Kind     Kind   `json:"kind"`
	Reason   string `json:"reason"`
	Filename string `json:"filename,omitempty"`
}

func (e *Error) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Reason, e.Filename)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// New creates a fault of the given kind.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Newf creates a fault with a formatted reason.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// IOError creates an IOFault carrying the offending filename.
func IOError(filename string, err error) *Error {
	return &Error{Kind: IOFault, Reason: err.Error(), Filename: filename}
}

// KindOf returns the fault kind of err, or Internal for untyped errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Internal
}

// Is reports whether err is a fault of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// statusOf maps a fault kind to an HTTP status code.
func statusOf(kind Kind) int {
	switch kind {
	case TrackNotFound, PlaylistNotFound, SessionClosed:
		return http.StatusNotFound
	case AuthFailed:
		return http.StatusUnauthorized
	case BadIdentity:
		return http.StatusForbidden
	case NoOpenStream, ServerNotBound, NoTrackLoaded, AlreadyPlaying, NotPlaying:
		return http.StatusConflict
	case BadReference, StreamSetupFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteHTTP writes err as a JSON fault body with its mapped status code.
// Untyped errors are wrapped as Internal.
func WriteHTTP(w http.ResponseWriter, err error) {
	var fe *Error
	if !errors.As(err, &fe) {
		fe = &Error{Kind: Internal, Reason: err.Error()}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusOf(fe.Kind))
	json.NewEncoder(w).Encode(fe)
}

// FromResponse decodes a non-2xx response into a typed fault. The body is
// consumed. Responses without a fault body become Internal faults carrying
// the status line.
func FromResponse(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return &Error{Kind: Internal, Reason: resp.Status}
	}
	var fe Error
	if json.Unmarshal(body, &fe) != nil || fe.Kind == "" {
		return &Error{Kind: Internal, Reason: fmt.Sprintf("%s: %s", resp.Status, body)}
	}
	return &fe
}

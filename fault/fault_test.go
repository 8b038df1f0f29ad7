package fault

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_TypedAndUntyped(t *testing.T) {
	assert.Equal(t, TrackNotFound, KindOf(New(TrackNotFound, "nope")))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
	assert.True(t, Is(New(AuthFailed, "bad"), AuthFailed))
	assert.False(t, Is(New(AuthFailed, "bad"), TrackNotFound))
}

func TestIOError_CarriesFilename(t *testing.T) {
	err := IOError("song.mp3", errors.New("disk gone"))
	assert.Equal(t, IOFault, err.Kind)
	assert.Equal(t, "song.mp3", err.Filename)
	assert.Contains(t, err.Error(), "song.mp3")
}

func TestWriteHTTP_RoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTP(rec, IOError("song.mp3", errors.New("read failed")))

	resp := rec.Result()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	decoded := FromResponse(resp)
	var fe *Error
	require.ErrorAs(t, decoded, &fe)
	assert.Equal(t, IOFault, fe.Kind)
	assert.Equal(t, "song.mp3", fe.Filename)
	assert.Equal(t, "read failed", fe.Reason)
}

func TestWriteHTTP_StatusMapping(t *testing.T) {
	cases := []struct {
		kind   Kind
		status int
	}{
		{TrackNotFound, http.StatusNotFound},
		{PlaylistNotFound, http.StatusNotFound},
		{SessionClosed, http.StatusNotFound},
		{AuthFailed, http.StatusUnauthorized},
		{BadIdentity, http.StatusForbidden},
		{NoOpenStream, http.StatusConflict},
		{AlreadyPlaying, http.StatusConflict},
		{BadReference, http.StatusBadGateway},
		{ConfirmPlayFailed, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteHTTP(rec, New(tc.kind, "x"))
		assert.Equal(t, tc.status, rec.Code, "kind %s", tc.kind)
	}
}

func TestWriteHTTP_WrapsUntypedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTP(rec, errors.New("boom"))

	resp := rec.Result()
	defer resp.Body.Close()
	decoded := FromResponse(resp)
	assert.Equal(t, Internal, KindOf(decoded))
}

func TestFromResponse_NonFaultBody(t *testing.T) {
	rec := httptest.NewRecorder()
	http.Error(rec, "not a fault", http.StatusTeapot)

	resp := rec.Result()
	defer resp.Body.Close()
	decoded := FromResponse(resp)
	assert.Equal(t, Internal, KindOf(decoded))
}

package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, NotFound, KindOf(New(NotFound, "gone")))
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.Equal(t, Unknown, KindOf(nil))
}

func TestKindOfWrappedError(t *testing.T) {
	inner := New(Conflict, "taken")
	outer := fmt.Errorf("saving user: %w", inner)

	assert.Equal(t, Conflict, KindOf(outer))
}

func TestSentinelMatchesThroughWrap(t *testing.T) {
	sentinel := New(NotFound, "user not found")
	wrapped := fmt.Errorf("loading profile: %w", sentinel)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.False(t, errors.Is(wrapped, New(NotFound, "other message")))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		NotFound:        http.StatusNotFound,
		Conflict:        http.StatusConflict,
		InvalidArgument: http.StatusBadRequest,
		Unauthenticated: http.StatusUnauthorized,
		Transient:       http.StatusServiceUnavailable,
		Unknown:         http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), "kind %s", kind)
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusFor(New(Conflict, "taken")))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("plain")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(Transient, "upload request failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

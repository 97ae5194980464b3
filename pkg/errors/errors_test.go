package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFollowsWrappedChain(t *testing.T) {
	err := fmt.Errorf("failed to create appointment: %w", SlotConflict("", nil))

	assert.True(t, Is(err, ErrSlotConflict))
	assert.False(t, Is(err, ErrValidation))
	assert.False(t, Is(nil, ErrSlotConflict))
	assert.Equal(t, ErrSlotConflict, CodeOf(err))
}

func TestCodeOfPlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, ErrInternal, CodeOf(fmt.Errorf("boom")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrValidation:          http.StatusBadRequest,
		ErrForbidden:           http.StatusForbidden,
		ErrNotFound:            http.StatusNotFound,
		ErrSlotConflict:        http.StatusConflict,
		ErrInvalidTransition:   http.StatusConflict,
		ErrPolicyViolation:     http.StatusUnprocessableEntity,
		ErrMalformedIdentifier: http.StatusInternalServerError,
		ErrInternal:            http.StatusInternalServerError,
		ErrUnauthorized:        http.StatusUnauthorized,
		ErrRateLimited:         http.StatusTooManyRequests,
	}
	for code, status := range cases {
		assert.Equal(t, status, code.HTTPStatus(), code.String())
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := MalformedIdentifier("PX1", fmt.Errorf("bad digits"))
	assert.Equal(t, `malformed identifier "PX1": bad digits`, err.Error())
}

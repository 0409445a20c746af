package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("deck: %w", ErrNotFound), http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("%w: not your deck", ErrForbidden), http.StatusForbidden},
		{"bad request", ErrBadRequest, http.StatusBadRequest},
		{"invalid input", fmt.Errorf("quantity: %w", ErrInvalidInput), http.StatusBadRequest},
		{"conflict", ErrConflict, http.StatusConflict},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"data unavailable", fmt.Errorf("%w: postgres down", ErrDataUnavailable), http.StatusServiceUnavailable},
		{"double wrapped", fmt.Errorf("like: %w", fmt.Errorf("deck: %w", ErrNotFound)), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatus(tc.err))
		})
	}
}

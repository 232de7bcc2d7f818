package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ariefcatur/go-flash-sale/internal/fault"
	"github.com/ariefcatur/go-flash-sale/internal/users"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fault.ErrInvalidInput, http.StatusBadRequest},
		{users.ErrBadCredentials, http.StatusUnauthorized},
		{fault.ErrNotFound, http.StatusNotFound},
		{fault.ErrOutOfStock, http.StatusConflict},
		{fault.ErrQuotaExceeded, http.StatusConflict},
		{fault.ErrInvalidState, http.StatusConflict},
		{fault.ErrConflict, http.StatusConflict},
		{fault.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("anything else"), http.StatusInternalServerError},
		// wrapped errors keep their kind
		{fmt.Errorf("product abc: %w", fault.ErrOutOfStock), http.StatusConflict},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, statusFor(tc.err), "%v", tc.err)
	}
}

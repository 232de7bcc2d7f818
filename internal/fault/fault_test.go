package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAny(t *testing.T) {
	assert.False(t, Any(nil))
	assert.False(t, Any(errors.New("plain")))
	assert.True(t, Any(ErrOutOfStock))
	assert.True(t, Any(fmt.Errorf("product p1: %w", ErrNotFound)))
	assert.True(t, Any(fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ErrQuotaExceeded))))
}

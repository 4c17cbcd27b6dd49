package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Validation("bad").Status)
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("no").Status)
	assert.Equal(t, http.StatusForbidden, Forbidden("no").Status)
	assert.Equal(t, http.StatusNotFound, NotFound("missing").Status)
	assert.Equal(t, http.StatusConflict, Conflict("dup").Status)
	assert.Equal(t, http.StatusInternalServerError, Internal("boom").Status)
}

func TestFormatting(t *testing.T) {
	err := NotFound("user %d not found", 7)
	assert.Equal(t, "user 7 not found", err.Error())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusOf(Conflict("dup")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("raw")))
	assert.Equal(t, http.StatusNotFound, StatusOf(fmt.Errorf("wrapped: %w", NotFound("gone"))))
}

func TestMessageOfHidesInternals(t *testing.T) {
	assert.Equal(t, "dup", MessageOf(Conflict("dup")))
	assert.Equal(t, "internal server error", MessageOf(errors.New("pq: connection refused")))
}

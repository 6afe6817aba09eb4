package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", NotFound("Role", nil), http.StatusNotFound},
		{"bad request", BadRequest("invalid date", nil), http.StatusBadRequest},
		{"unauthorized", Unauthorized(nil), http.StatusUnauthorized},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"conflict", Conflict("exists", nil), http.StatusConflict},
		{"internal", Internal(sql.ErrConnDone), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Office not found", NotFound("Office", nil).Message)
	assert.Equal(t, "Unauthorized", Unauthorized(nil).Message)
	assert.Equal(t, "Internal server error", Internal(nil).Message)
	assert.Equal(t, "Role not found: sql: no rows in result set", NotFound("Role", sql.ErrNoRows).Error())
}

func TestAsAndIs(t *testing.T) {
	wrapped := fmt.Errorf("update role: %w", Forbidden("Managers can only manage roles for their own office"))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "Managers can only manage roles for their own office", appErr.Message)
	assert.True(t, Is(wrapped, ErrForbidden))
	assert.False(t, Is(wrapped, ErrNotFound))

	_, ok = As(sql.ErrNoRows)
	assert.False(t, ok)
	assert.ErrorIs(t, NotFound("Role", sql.ErrNoRows), sql.ErrNoRows)
}

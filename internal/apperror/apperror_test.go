package apperror_test

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"user-service/internal/apperror"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedError(t *testing.T) {
	err := fmt.Errorf("create user: %w", apperror.Query("users.create", sql.ErrConnDone))

	assert.Equal(t, apperror.KindQuery, apperror.KindOf(err))
	assert.True(t, apperror.Is(err, apperror.KindQuery))
	assert.False(t, apperror.Is(err, apperror.KindConnection))
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestKindOfForeignErrorIsInternal(t *testing.T) {
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(errors.New("boom")))
	assert.False(t, apperror.Is(nil, apperror.KindInternal))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "Please provide name, email and pwd",
		apperror.MessageOf(apperror.Validation("create", "Please provide name, email and pwd")))
	assert.Equal(t, "dial tcp: refused",
		apperror.MessageOf(apperror.Connection("open", errors.New("dial tcp: refused"))))
	assert.Equal(t, "plain", apperror.MessageOf(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	err := apperror.Validation("users.update", "missing user_id")
	assert.Equal(t, "users.update: validation error: missing user_id", err.Error())

	err = apperror.Configuration("", "DB_NAME is required")
	assert.Equal(t, "configuration error: DB_NAME is required", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind apperror.Kind
		want int
	}{
		{apperror.KindValidation, http.StatusBadRequest},
		{apperror.KindConnection, http.StatusServiceUnavailable},
		{apperror.KindQuery, http.StatusInternalServerError},
		{apperror.KindInternal, http.StatusInternalServerError},
		{apperror.KindConfiguration, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, apperror.HTTPStatus(tt.kind))
		})
	}
}

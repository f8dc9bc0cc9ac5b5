package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainErrorMapsNoRowsToNotFound(t *testing.T) {
	err := fmt.Errorf("load ticket: %w", pgx.ErrNoRows)
	de := ToDomainError(err)
	assert.Equal(t, "NOT_FOUND", de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
}

func TestToDomainErrorKeepsDomainErrors(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewForbidden("nope"))
	de := ToDomainError(err)
	assert.Equal(t, "FORBIDDEN", de.Code)
	assert.True(t, IsCode(err, "FORBIDDEN"))
}

func TestToDomainErrorDefaultsToInternal(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	de := ToDomainError(cause)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.ErrorIs(t, de, cause)
	assert.Nil(t, ToDomainError(nil))
}

package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepositoryErrorUnwraps(t *testing.T) {
	err := &RepositoryError{Operation: "degrade update", Entity: "equipment item", Err: sql.ErrConnDone}

	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), "degrade update")
	assert.Contains(t, err.Error(), "equipment item")
}

func TestNotFoundErrorMessage(t *testing.T) {
	var err error = &NotFoundError{Entity: "equipment item", ID: int64(7)}

	assert.EqualError(t, err, "equipment item with ID 7 not found")

	var nfe *NotFoundError
	assert.True(t, errors.As(err, &nfe))
}

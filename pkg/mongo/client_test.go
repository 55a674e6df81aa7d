package mongo_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	driver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/moneylens/pkg/mongo"
)

func TestNewWithDatabaseRequiresName(t *testing.T) {
	t.Parallel()

	_, err := mongo.NewWithDatabase(t.Context(), mongo.Config{ConnectionURL: "mongodb://localhost:27017"})
	assert.ErrorIs(t, err, mongo.ErrDatabaseNameRequired)
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, mongo.IsNotFoundError(fmt.Errorf("find: %w", driver.ErrNoDocuments)))
	assert.False(t, mongo.IsNotFoundError(errors.New("boom")))
}

func TestIsDuplicateKeyError(t *testing.T) {
	t.Parallel()

	dup := driver.WriteException{WriteErrors: []driver.WriteError{{Code: 11000}}}
	assert.True(t, mongo.IsDuplicateKeyError(dup))
	assert.False(t, mongo.IsDuplicateKeyError(errors.New("boom")))
}

package pg_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/moneylens/pkg/pg"
)

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		assert.True(t, pg.IsNotFoundError(fmt.Errorf("get: %w", pgx.ErrNoRows)))
		assert.False(t, pg.IsNotFoundError(errors.New("boom")))
		assert.False(t, pg.IsNotFoundError(nil))
	})

	t.Run("duplicate key", func(t *testing.T) {
		t.Parallel()
		assert.True(t, pg.IsDuplicateKeyError(errors.Join(errors.New("insert"), &pgconn.PgError{Code: "23505"})))
		assert.False(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
		assert.False(t, pg.IsDuplicateKeyError(nil))
	})
}

func TestMigrateRequiresFilesystem(t *testing.T) {
	t.Parallel()

	err := pg.Migrate(t.Context(), nil, nil, pg.Config{}, nopLogger{})
	assert.ErrorIs(t, err, pg.ErrFailedToApplyMigrations)
	assert.ErrorIs(t, err, pg.ErrMigrationsNotProvided)
}

func TestConnectRejectsEmptyConnectionString(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(t.Context(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)
}

type nopLogger struct{}

func (nopLogger) InfoContext(_ context.Context, _ string, _ ...any)  {}
func (nopLogger) ErrorContext(_ context.Context, _ string, _ ...any) {}

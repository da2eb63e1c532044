package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/simplerag/cache"
)

func TestPostgresCache_InitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	c := NewPostgresCacheWithPool(mock, "")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS embedding_cache")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, c.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCache_Set(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	c := NewPostgresCacheWithPool(mock, "vectors")
	vec := []float32{1, 2}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vectors")).
		WithArgs("k", cache.EncodeVector(vec)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, c.Set(context.Background(), "k", vec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCache_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Hit", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		c := NewPostgresCacheWithPool(mock, "vectors")
		rows := pgxmock.NewRows([]string{"vector"}).AddRow(cache.EncodeVector([]float32{0.5, -0.5}))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT vector FROM vectors WHERE key = $1")).
			WithArgs("k").
			WillReturnRows(rows)

		vec, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []float32{0.5, -0.5}, vec)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Miss", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		c := NewPostgresCacheWithPool(mock, "vectors")
		mock.ExpectQuery(regexp.QuoteMeta("SELECT vector FROM vectors WHERE key = $1")).
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		_, ok, err := c.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Query error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		c := NewPostgresCacheWithPool(mock, "vectors")
		boom := errors.New("connection reset")
		mock.ExpectQuery(regexp.QuoteMeta("SELECT vector FROM vectors")).
			WithArgs("k").
			WillReturnError(boom)

		_, _, err = c.Get(ctx, "k")
		assert.ErrorIs(t, err, boom)
	})
}

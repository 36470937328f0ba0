package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"shg-finance/internal/config"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenDenylist_Revoke(t *testing.T) {
	db, mock := redismock.NewClientMock()
	d := NewTokenDenylist(db)
	ctx := context.Background()

	mock.ExpectSet("auth:denylist:jti-1", "1", 10*time.Minute).SetVal("OK")

	require.NoError(t, d.Revoke(ctx, "jti-1", 10*time.Minute))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenDenylist_RevokeSkipsExpired(t *testing.T) {
	db, mock := redismock.NewClientMock()
	d := NewTokenDenylist(db)

	require.NoError(t, d.Revoke(context.Background(), "jti-1", 0))
	require.NoError(t, d.Revoke(context.Background(), "", time.Minute))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenDenylist_IsRevoked(t *testing.T) {
	t.Run("revoked", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectExists("auth:denylist:jti-1").SetVal(1)

		revoked, err := NewTokenDenylist(db).IsRevoked(context.Background(), "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectExists("auth:denylist:jti-2").SetVal(0)

		revoked, err := NewTokenDenylist(db).IsRevoked(context.Background(), "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectExists("auth:denylist:jti-3").SetErr(errors.New("connection refused"))

		_, err := NewTokenDenylist(db).IsRevoked(context.Background(), "jti-3")
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTokenDenylist_NilClient(t *testing.T) {
	var d *TokenDenylist
	require.NoError(t, d.Revoke(context.Background(), "jti", time.Minute))

	revoked, err := NewTokenDenylist(nil).IsRevoked(context.Background(), "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestConnect_Disabled(t *testing.T) {
	client, err := Connect(config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.NoError(t, Ping(context.Background(), client))
}

func TestPing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectPing().SetVal("PONG")

	assert.NoError(t, Ping(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

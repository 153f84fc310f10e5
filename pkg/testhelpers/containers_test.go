//go:build integration

package testhelpers

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestPostgresContainer_Connection(t *testing.T) {
	pg := GetPostgres(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, pg.Config.ConnectionString())
	require.NoError(t, err)
	defer pool.Close()

	var one int
	require.NoError(t, pool.QueryRow(ctx, "SELECT 1").Scan(&one))
	require.Equal(t, 1, one)
}

func TestRedisContainer_Connection(t *testing.T) {
	rc := GetRedis(t)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%d", rc.Config.Host, rc.Config.Port)})
	defer client.Close()

	require.NoError(t, client.Ping(ctx).Err())
}

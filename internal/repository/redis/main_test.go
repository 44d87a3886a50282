package redis_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Rrens/smm-bot/internal/config"
	"github.com/Rrens/smm-bot/internal/repository/redis"
)

var (
	redisOnce      sync.Once
	redisClient    *redis.Client
	redisSkip      string
	redisContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	code := m.Run()
	if redisClient != nil {
		redisClient.Close()
	}
	if redisContainer != nil {
		_ = testcontainers.TerminateContainer(redisContainer)
	}
	os.Exit(code)
}

// setupRedis starts one Redis container per package run
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	redisOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForListeningPort("6379/tcp"),
			},
			Started: true,
		})
		if err != nil {
			redisSkip = "docker unavailable: " + err.Error()
			return
		}
		redisContainer = ctr

		host, err := ctr.Host(ctx)
		if err != nil {
			redisSkip = err.Error()
			return
		}
		port, err := ctr.MappedPort(ctx, "6379/tcp")
		if err != nil {
			redisSkip = err.Error()
			return
		}

		redisClient, err = redis.NewClient(ctx, config.RedisConfig{Host: host, Port: port.Int()})
		if err != nil {
			redisSkip = err.Error()
		}
	})

	if redisSkip != "" {
		t.Skip(redisSkip)
	}
	require.NotNil(t, redisClient)
	return redisClient
}

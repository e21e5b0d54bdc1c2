package cache

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestRedis starts a throwaway Redis container. The test is skipped when
// no container runtime is available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Redis container not available: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	t.Cleanup(func() {
		client.Close()
		container.Terminate(context.Background())
	})

	return client
}

func TestNewManager(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client, time.Hour)
	if manager.redis != client {
		t.Error("Manager redis client not set correctly")
	}
	if manager.TTL() != time.Hour {
		t.Errorf("TTL() = %v, want 1h", manager.TTL())
	}
}

func TestNewManager_DefaultTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	if got := NewManager(client, 0).TTL(); got != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", got, DefaultTTL)
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil, time.Hour)
}

func TestManager_SetGetDelete(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()

	key := PageKey{
		Endpoint: "https://en.wikipedia.org/w/api.php",
		Params:   url.Values{"list": {"recentchanges"}, "rcstart": {"2024-10-31T23:59:59Z"}},
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get on empty cache: err = %v, want ErrCacheMiss", err)
	}

	body := []byte(`{"query":{"recentchanges":[{"title":"Page 1"}]}}`)
	if err := manager.Set(ctx, key, NewPageEntry(body)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	entry, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(entry.Body) != string(body) {
		t.Errorf("Body = %q, want %q", entry.Body, body)
	}

	ttl, err := client.TTL(ctx, key.String()).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("redis TTL = %v, want (0, 1m]", ttl)
	}

	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete: err = %v, want ErrCacheMiss", err)
	}
}

func TestManager_InvalidEntry(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()

	key := PageKey{Endpoint: "https://en.wikipedia.org/w/api.php"}
	if err := client.Set(ctx, key.String(), "not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("err = %v, want ErrInvalidEntry", err)
	}
}

func TestManager_SetNil(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client, time.Minute)
	if err := manager.Set(context.Background(), PageKey{}, nil); err == nil {
		t.Error("expected error for nil entry")
	}
}

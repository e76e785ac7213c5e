package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.Addrs = []string{mr.Addr()}

	client, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "default", config: DefaultConfig()},
		{name: "no addrs", config: &Config{}, wantErr: true},
		{name: "empty addr", config: &Config{Addrs: []string{""}}, wantErr: true},
		{name: "bad db", config: &Config{Addrs: []string{"a:1"}, DB: 16}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addrs = []string{"127.0.0.1:1"}
	cfg.DialTimeout = 200 * time.Millisecond
	cfg.MaxRetries = -1

	_, err := New(cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestLockUnlock(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	token, err := client.Lock(ctx, "lock:a", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = client.Lock(ctx, "lock:a", time.Minute)
	assert.True(t, errors.Is(err, ErrLockNotAcquired))

	assert.ErrorIs(t, client.Unlock(ctx, "lock:a", "someone-else"), ErrLockNotHeld)
	require.NoError(t, client.Unlock(ctx, "lock:a", token))

	_, err = client.Lock(ctx, "lock:a", time.Minute)
	assert.NoError(t, err)
}

func TestWithLock(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	ran := false
	err := client.WithLock(ctx, "lock:b", time.Minute, func() error {
		ran = true
		assert.True(t, mr.Exists("lock:b"))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists("lock:b"))

	boom := errors.New("boom")
	err = client.WithLock(ctx, "lock:b", time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:b"))
}

func TestEval(t *testing.T) {
	client, _ := setupTestClient(t)

	result, err := client.Eval(context.Background(), `return redis.call("INCR", KEYS[1])`, []string{"counter"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result)
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/eventra-app/eventra-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

func configRedis(url string) config.RedisConfig {
	return config.RedisConfig{URL: url}
}

type fakeCmdable struct {
	setNXResult bool
	setNXErr    error
	getValue    string
	getErr      error
	delKeys     []string
}

func (f *fakeCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	return redis.NewStringResult(f.getValue, f.getErr)
}

func (f *fakeCmdable) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(f.setNXResult, f.setNXErr)
}

func (f *fakeCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.delKeys = append(f.delKeys, keys...)
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestLockKeyFormat(t *testing.T) {
	client := &Client{store: &fakeCmdable{}}
	got := client.LockKey("certificates", "abc-123")
	want := "ev:lock:certificates:abc-123"
	if got != want {
		t.Fatalf("unexpected key %q, want %q", got, want)
	}
}

func TestSetNXPassthrough(t *testing.T) {
	store := &fakeCmdable{setNXResult: true}
	client := &Client{store: store}
	ok, err := client.SetNX(context.Background(), "k", "1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected set, got ok=%v err=%v", ok, err)
	}

	store.setNXResult = false
	ok, err = client.SetNX(context.Background(), "k", "1", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected not set, got ok=%v err=%v", ok, err)
	}
}

func TestGetTreatsNilAsEmpty(t *testing.T) {
	client := &Client{store: &fakeCmdable{getErr: redis.Nil}}
	val, err := client.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("redis.Nil should not surface: %v", err)
	}
	if val != "" {
		t.Fatalf("expected empty value, got %q", val)
	}
}

func TestOptionsFromConfigRequiresURL(t *testing.T) {
	if _, err := optionsFromConfig(configRedis("")); err == nil {
		t.Fatal("expected error for missing url")
	}
	opts, err := optionsFromConfig(configRedis("redis://localhost:6379/2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 {
		t.Fatalf("expected db 2 from url, got %d", opts.DB)
	}
}

func TestDelNoKeysIsNoop(t *testing.T) {
	store := &fakeCmdable{}
	client := &Client{store: store}
	if err := client.Del(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.delKeys) != 0 {
		t.Fatal("expected no delete calls")
	}
}

func TestPingUninitialized(t *testing.T) {
	var client *Client
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from nil client")
	}
}

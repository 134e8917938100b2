package redis

import (
	"context"
	"testing"

	"github.com/wonny/quantoracle/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestCache_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(context.Background(), "missing", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}

	if err := cache.Set(context.Background(), "key", "value", TTLShort); err != nil {
		t.Errorf("Set() error = %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	if got := RankingsKey("20250102T120000Z", 10); got != "rankings:20250102T120000Z:10" {
		t.Errorf("RankingsKey() = %s", got)
	}

	if got := ModelMetaKey("ridge_h5"); got != "model:meta:ridge_h5" {
		t.Errorf("ModelMetaKey() = %s", got)
	}
}

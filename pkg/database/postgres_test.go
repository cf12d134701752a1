package database

import (
	"context"
	"testing"

	"github.com/sqldeck/sqldeck-engine/pkg/config"
)

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "not-a-postgres-url://///", 5)
	if err == nil {
		t.Fatal("expected error for unparseable database URL")
	}
}

func TestNewRedisClient_NotConfigured(t *testing.T) {
	client, err := NewRedisClient(context.Background(), &config.RedisConfig{})
	if err != nil {
		t.Fatalf("expected nil error for unset redis config, got %v", err)
	}
	if client != nil {
		t.Error("expected nil client when redis host is empty")
	}
}

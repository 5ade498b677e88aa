package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNilCache_IsNoOp(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	var dest []string
	if err := c.GetJSON(ctx, "interests", &dest); !errors.Is(err, ErrMiss) {
		t.Errorf("GetJSON on nil cache = %v, want ErrMiss", err)
	}

	// These must not panic.
	c.SetJSON(ctx, "interests", []string{"Fitness"}, time.Minute)
	c.Invalidate(ctx, "interests")
	if err := c.Close(); err != nil {
		t.Errorf("Close on nil cache = %v", err)
	}
}

func TestNew_EmptyURL_DisablesCache(t *testing.T) {
	c, err := New(context.Background(), "", zap.NewNop())
	if err != nil {
		t.Fatalf("New with empty URL: %v", err)
	}
	if c != nil {
		t.Fatal("expected nil cache when no URL is configured")
	}
}

func TestNew_BadURL(t *testing.T) {
	if _, err := New(context.Background(), "::not-a-url::", zap.NewNop()); err == nil {
		t.Fatal("expected an error for a malformed redis URL")
	}
}

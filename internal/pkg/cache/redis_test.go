package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	c := NewRedisCache(Options{Addr: "127.0.0.1:0", ServiceName: "store"})
	defer c.Close()

	assert.Equal(t, "store:checkout:alice:k1", c.GenerateKey("checkout", "alice:k1"))
}

func TestUnreachableRedisReportsErrors(t *testing.T) {
	c := NewRedisCache(Options{Addr: "127.0.0.1:1", ServiceName: "store"})
	defer c.Close()

	ctx := context.Background()
	assert.Error(t, c.Ping(ctx))
	_, err := c.Get(ctx, "missing")
	assert.Error(t, err)
}

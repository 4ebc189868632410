package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValuesRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, " req-1 ")
	ctx = WithStoreID(ctx, "42")
	ctx = WithActor(ctx, "system", "scheduler")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "42", StoreIDFromContext(ctx))
	kind, id := ActorFromContext(ctx)
	assert.Equal(t, "system", kind)
	assert.Equal(t, "scheduler", id)
}

func TestBlankValuesAreIgnored(t *testing.T) {
	ctx := WithRequestID(context.Background(), "  ")
	assert.Empty(t, RequestIDFromContext(ctx))
	assert.Empty(t, StoreIDFromContext(ctx))
}

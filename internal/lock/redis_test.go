package lock

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNewLockerWithoutClient(t *testing.T) {
	assert.Nil(t, NewLocker(nil))
	assert.Nil(t, provideGenerationLocker(nil))
}

func TestAcquireValidatesInput(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	l := NewLocker(client)

	_, err := l.Acquire(context.Background(), "", time.Second)
	assert.Error(t, err)

	_, err = l.Acquire(context.Background(), "settlement:generate:42:2026-01-15", 0)
	assert.Error(t, err)

	var nilLocker *Locker
	_, err = nilLocker.Acquire(context.Background(), "k", time.Second)
	assert.Error(t, err)
}

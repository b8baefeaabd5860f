package security

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestUploadLimiterWithoutRedisAllows(t *testing.T) {
	ul := NewUploadLimiter(nil, 0, 0)
	assert.Equal(t, 10, ul.maxPerMinute)
	assert.Equal(t, 50, ul.maxPerDay)

	allowed, retry, err := ul.AllowUpload(context.Background(), "10.0.0.1", "user-1")
	assert.True(t, allowed)
	assert.Zero(t, retry)
	assert.ErrorIs(t, err, ErrLimiterUnavailable)
}

func TestUploadLimiterFailsClosedOnRedisError(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	allowed, retry, err := NewUploadLimiter(client, 5, 20).AllowUpload(context.Background(), "10.0.0.1", "user-1")
	assert.False(t, allowed)
	assert.Equal(t, 60, retry)
	assert.Error(t, err)
}

package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"deck-mirror/feature/mirror/schedule"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishDueEvent(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := Config{Addr: mr.Addr(), Channel: "deck:due"}
	pub := NewPublisher(cfg, zap.NewNop())
	t.Cleanup(func() { _ = pub.Close() })

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = sub.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubsub := sub.Subscribe(ctx, "deck:due")
	t.Cleanup(func() { _ = pubsub.Close() })
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	due := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	pub.Publish(schedule.Event{CardID: 100, StackID: 10, BoardID: 1, Title: "write report", Due: due})

	msg, err := pubsub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "deck:due", msg.Channel)

	var got schedule.Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, int64(100), got.CardID)
	assert.Equal(t, "write report", got.Title)
	assert.True(t, got.Due.Equal(due))
}

func TestPublishFailureDoesNotPanic(t *testing.T) {
	pub := NewPublisher(Config{Addr: "127.0.0.1:1", Channel: "deck:due"}, zap.NewNop())
	t.Cleanup(func() { _ = pub.Close() })

	// Unreachable Redis: the publish is logged and dropped.
	pub.Publish(schedule.Event{CardID: 1, Due: time.Now()})
}

func TestFeatureDisabledWithoutAddr(t *testing.T) {
	f := NewFeature(Config{}, nil, zap.NewNop())
	assert.False(t, f.IsEnabled())

	f = NewFeature(Config{Addr: "localhost:6379"}, nil, zap.NewNop())
	assert.True(t, f.IsEnabled())
}

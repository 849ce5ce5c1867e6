package mirror

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"deck-mirror/core/deck"
	"deck-mirror/core/deck/mocks"
	"deck-mirror/feature/mirror/models"
	"deck-mirror/feature/mirror/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSnapshot(due *time.Time) *deck.Snapshot {
	owner := deck.UserData{UID: "alice", DisplayName: "Alice", Type: 0}
	card := deck.CardData{
		ID: 100, StackID: 10, ETag: "c1", Type: "plain", Title: "write report", Owner: owner,
	}
	if due != nil {
		s := due.UTC().Format(time.RFC3339)
		card.Duedate = &s
	}
	return &deck.Snapshot{Boards: []deck.BoardData{{
		ID: 1, ETag: "b1", Title: "work", Owner: owner,
		Users: []deck.UserData{owner},
		Stacks: []deck.StackData{{
			ID: 10, BoardID: 1, ETag: "s1", Title: "todo",
			Cards: []deck.CardData{card},
		}},
	}}}
}

func newTestService(client deck.Client, cooldownSeconds int) *Service {
	return NewService(client, Config{CooldownSeconds: cooldownSeconds}, zap.NewNop())
}

func TestPollBuildsTree(t *testing.T) {
	client := new(mocks.Client)
	client.On("Snapshot", mock.Anything).Return(testSnapshot(nil), nil)

	svc := newTestService(client, 30)
	svc.poll(context.Background())

	tree := svc.CurrentTree()
	require.Len(t, tree.Boards, 1)
	assert.Equal(t, 1, tree.CardCount())

	st := svc.Status()
	assert.Equal(t, int64(1), st.Polls)
	assert.Equal(t, int64(0), st.Failures)
	assert.NotNil(t, st.LastSync)
	assert.Empty(t, st.LastErr)
}

func TestPollKeepsTreeOnFetchError(t *testing.T) {
	client := new(mocks.Client)
	client.On("Snapshot", mock.Anything).Return(testSnapshot(nil), nil).Once()
	client.On("Snapshot", mock.Anything).
		Return(nil, &deck.RequestError{Reason: deck.ReasonConnection, Body: "connection refused"})

	svc := newTestService(client, 30)
	svc.poll(context.Background())
	require.Equal(t, 1, svc.CurrentTree().CardCount())

	svc.poll(context.Background())

	assert.Equal(t, 1, svc.CurrentTree().CardCount(), "last known-good tree must survive a failed poll")
	st := svc.Status()
	assert.Equal(t, int64(2), st.Polls)
	assert.Equal(t, int64(1), st.Failures)
	assert.Contains(t, st.LastErr, "connection refused")
}

func TestPollArmsScheduler(t *testing.T) {
	client := new(mocks.Client)
	due := time.Now().Add(time.Hour).Truncate(time.Second)
	client.On("Snapshot", mock.Anything).Return(testSnapshot(&due), nil)

	svc := newTestService(client, 30)
	svc.poll(context.Background())

	ev, ok := svc.NextDue()
	require.True(t, ok)
	assert.Equal(t, int64(100), ev.CardID)
	assert.Equal(t, "write report", ev.Title)
	assert.True(t, ev.Due.Equal(due.UTC()))
}

func TestForceRefreshShortensCooldown(t *testing.T) {
	client := new(mocks.Client)
	client.On("Snapshot", mock.Anything).Return(testSnapshot(nil), nil)

	svc := newTestService(client, 3600)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Run(ctx)

	require.Eventually(t, func() bool { return svc.Status().Polls == 1 }, time.Second, 5*time.Millisecond)

	svc.ForceRefresh()
	require.Eventually(t, func() bool { return svc.Status().Polls == 2 }, time.Second, 5*time.Millisecond)
}

func TestDueCallbackFires(t *testing.T) {
	client := new(mocks.Client)
	due := time.Now().Add(50 * time.Millisecond)
	client.On("Snapshot", mock.Anything).Return(testSnapshot(&due), nil)

	svc := newTestService(client, 3600)
	var fired atomic.Int64
	var got atomic.Value
	svc.Subscribe(func(ev schedule.Event) {
		got.Store(ev)
		fired.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Run(ctx)

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	ev := got.Load().(schedule.Event)
	assert.Equal(t, int64(100), ev.CardID)
}

func TestViewSeesCurrentTree(t *testing.T) {
	client := new(mocks.Client)
	client.On("Snapshot", mock.Anything).Return(testSnapshot(nil), nil)

	svc := newTestService(client, 30)
	svc.poll(context.Background())

	var title string
	err := svc.View(func(tree *models.Tree) error {
		title = tree.Boards[0].Title
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "work", title)
}

func TestCooldownDefault(t *testing.T) {
	cfg := Config{}
	assert.Equal(t, 30*time.Second, cfg.Cooldown())

	cfg.CooldownSeconds = 5
	assert.Equal(t, 5*time.Second, cfg.Cooldown())
}

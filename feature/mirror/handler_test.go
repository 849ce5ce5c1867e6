package mirror

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"deck-mirror/core/deck"
	"deck-mirror/core/deck/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, svc *Service) *fiber.App {
	t.Helper()
	app := fiber.New()
	NewHandler(svc).RegisterRoutes(app)
	return app
}

func decodeBody(t *testing.T, body io.Reader, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(out))
}

func TestHandleGetTree(t *testing.T) {
	client := new(mocks.Client)
	client.On("Snapshot", mock.Anything).Return(testSnapshot(nil), nil)
	svc := newTestService(client, 30)
	svc.poll(context.Background())

	app := newTestApp(t, svc)
	resp, err := app.Test(httptest.NewRequest("GET", "/mirror/tree", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var tree struct {
		Boards []struct {
			Title  string `json:"title"`
			Stacks []struct {
				Cards []struct {
					Title string `json:"title"`
				} `json:"cards"`
			} `json:"stacks"`
		} `json:"boards"`
	}
	decodeBody(t, resp.Body, &tree)
	require.Len(t, tree.Boards, 1)
	assert.Equal(t, "work", tree.Boards[0].Title)
	require.Len(t, tree.Boards[0].Stacks, 1)
	require.Len(t, tree.Boards[0].Stacks[0].Cards, 1)
	assert.Equal(t, "write report", tree.Boards[0].Stacks[0].Cards[0].Title)
}

func TestHandleGetNextDueEmpty(t *testing.T) {
	client := new(mocks.Client)
	svc := newTestService(client, 30)

	app := newTestApp(t, svc)
	resp, err := app.Test(httptest.NewRequest("GET", "/mirror/next", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleGetNextDue(t *testing.T) {
	client := new(mocks.Client)
	due := time.Now().Add(time.Hour).Truncate(time.Second)
	client.On("Snapshot", mock.Anything).Return(testSnapshot(&due), nil)
	svc := newTestService(client, 30)
	svc.poll(context.Background())

	app := newTestApp(t, svc)
	resp, err := app.Test(httptest.NewRequest("GET", "/mirror/next", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var ev struct {
		CardID int64     `json:"card_id"`
		Title  string    `json:"title"`
		Due    time.Time `json:"due"`
	}
	decodeBody(t, resp.Body, &ev)
	assert.Equal(t, int64(100), ev.CardID)
	assert.Equal(t, "write report", ev.Title)
	assert.True(t, ev.Due.Equal(due.UTC()))
}

func TestHandleGetStatus(t *testing.T) {
	client := new(mocks.Client)
	client.On("Snapshot", mock.Anything).Return(testSnapshot(nil), nil).Once()
	client.On("Snapshot", mock.Anything).
		Return(nil, &deck.RequestError{Reason: deck.ReasonTimeout, Body: "deadline exceeded"})
	svc := newTestService(client, 30)
	svc.poll(context.Background())
	svc.poll(context.Background())

	app := newTestApp(t, svc)
	resp, err := app.Test(httptest.NewRequest("GET", "/mirror/status", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var st Status
	decodeBody(t, resp.Body, &st)
	assert.Equal(t, 1, st.Boards)
	assert.Equal(t, 1, st.Cards)
	assert.Equal(t, int64(2), st.Polls)
	assert.Equal(t, int64(1), st.Failures)
	assert.Contains(t, st.LastErr, "deadline exceeded")
}

func TestHandleRefresh(t *testing.T) {
	client := new(mocks.Client)
	svc := newTestService(client, 30)

	app := newTestApp(t, svc)
	resp, err := app.Test(httptest.NewRequest("POST", "/mirror/refresh", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	// The request must be queued for the poll loop.
	select {
	case <-svc.refresh:
	default:
		t.Fatal("refresh request not queued")
	}
}

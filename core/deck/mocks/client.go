package mocks

import (
	"context"

	"deck-mirror/core/deck"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of deck.Client
type Client struct {
	mock.Mock
}

func (m *Client) Snapshot(ctx context.Context) (*deck.Snapshot, error) {
	args := m.Called(ctx)
	if snap, ok := args.Get(0).(*deck.Snapshot); ok {
		return snap, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Attachments(ctx context.Context, boardID, stackID, cardID int64) ([]deck.AttachmentData, error) {
	args := m.Called(ctx, boardID, stackID, cardID)
	if attachments, ok := args.Get(0).([]deck.AttachmentData); ok {
		return attachments, args.Error(1)
	}
	return nil, args.Error(1)
}

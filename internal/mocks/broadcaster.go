package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) ToRoom(room, event string, data any) {
	m.Called(room, event, data)
}

func (m *BroadcasterMock) ToAll(event string, data any) {
	m.Called(event, data)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

package mocks

import (
	"context"

	"chat-server/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockChatService is a mock type for the ChatService type
type MockChatService struct {
	mock.Mock
}

// Chat provides a mock function with given fields: ctx, prompt
func (_m *MockChatService) Chat(ctx context.Context, prompt string) (string, error) {
	ret := _m.Called(ctx, prompt)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string) string); ok {
		r0 = rf(ctx, prompt)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, prompt)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockChatService creates a new instance of MockChatService with expectations asserted on cleanup.
func NewMockChatService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockChatService {
	m := &MockChatService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.ChatService = (*MockChatService)(nil)

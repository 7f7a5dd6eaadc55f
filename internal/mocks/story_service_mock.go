package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"storyfairy-server/internal/model"
	"storyfairy-server/internal/repository"
	"storyfairy-server/internal/service"
)

// MockStoryService is a mock type for the service.StoryService type
type MockStoryService struct {
	mock.Mock
}

func (_m *MockStoryService) GenerateStory(ctx context.Context, userID string, req *model.GenerationRequest) (*model.StoryRecord, error) {
	ret := _m.Called(ctx, userID, req)

	var r0 *model.StoryRecord
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.StoryRecord)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryService) GetStory(ctx context.Context, userID string, storyID uuid.UUID) (*model.StoryRecord, error) {
	ret := _m.Called(ctx, userID, storyID)

	var r0 *model.StoryRecord
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.StoryRecord)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryService) ListStories(ctx context.Context, userID string, limit int, cursor string) (*model.StoryPage, error) {
	ret := _m.Called(ctx, userID, limit, cursor)

	var r0 *model.StoryPage
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.StoryPage)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryService) DeleteStory(ctx context.Context, userID string, storyID uuid.UUID) error {
	ret := _m.Called(ctx, userID, storyID)
	return ret.Error(0)
}

func (_m *MockStoryService) GetBalance(ctx context.Context, userID string) (int, error) {
	ret := _m.Called(ctx, userID)

	var r0 int
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(int)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryService) AddCredits(ctx context.Context, userID string, amount int) (int, error) {
	ret := _m.Called(ctx, userID, amount)

	var r0 int
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(int)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryService) CreditHistory(ctx context.Context, userID string, limit int) ([]repository.CreditTransaction, error) {
	ret := _m.Called(ctx, userID, limit)

	var r0 []repository.CreditTransaction
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]repository.CreditTransaction)
	}
	return r0, ret.Error(1)
}

// NewMockStoryService creates a new instance of MockStoryService and
// registers the testing interface on it.
func NewMockStoryService(t interface {
	mock.TestingT
	Helper()
}) *MockStoryService {
	m := &MockStoryService{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.StoryService = (*MockStoryService)(nil)

package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"storyfairy-server/internal/model"
	"storyfairy-server/internal/repository"
	"storyfairy-server/internal/storage"
)

// MockBlobStore is a mock type for the storage.BlobStore type
type MockBlobStore struct {
	mock.Mock
}

func (_m *MockBlobStore) Put(ctx context.Context, data []byte, contentType string, container string, name string) error {
	ret := _m.Called(ctx, data, contentType, container, name)
	return ret.Error(0)
}

func (_m *MockBlobStore) SignedURL(ctx context.Context, container string, name string, ttl time.Duration) (string, error) {
	ret := _m.Called(ctx, container, name, ttl)

	var r0 string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}
	return r0, ret.Error(1)
}

// NewMockBlobStore creates a new instance of MockBlobStore and registers the
// testing interface on it.
func NewMockBlobStore(t interface {
	mock.TestingT
	Helper()
}) *MockBlobStore {
	m := &MockBlobStore{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ storage.BlobStore = (*MockBlobStore)(nil)

// MockDocumentStore is a mock type for the repository.DocumentStore type
type MockDocumentStore struct {
	mock.Mock
}

func (_m *MockDocumentStore) CreateStory(ctx context.Context, record *model.StoryRecord) error {
	ret := _m.Called(ctx, record)
	return ret.Error(0)
}

func (_m *MockDocumentStore) GetStory(ctx context.Context, userID string, storyID uuid.UUID) (*model.StoryRecord, error) {
	ret := _m.Called(ctx, userID, storyID)

	var r0 *model.StoryRecord
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.StoryRecord)
	}
	return r0, ret.Error(1)
}

func (_m *MockDocumentStore) GetUserStories(ctx context.Context, userID string, limit int, cursor string) (*model.StoryPage, error) {
	ret := _m.Called(ctx, userID, limit, cursor)

	var r0 *model.StoryPage
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.StoryPage)
	}
	return r0, ret.Error(1)
}

func (_m *MockDocumentStore) DeleteStory(ctx context.Context, userID string, storyID uuid.UUID) error {
	ret := _m.Called(ctx, userID, storyID)
	return ret.Error(0)
}

// NewMockDocumentStore creates a new instance of MockDocumentStore and
// registers the testing interface on it.
func NewMockDocumentStore(t interface {
	mock.TestingT
	Helper()
}) *MockDocumentStore {
	m := &MockDocumentStore{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.DocumentStore = (*MockDocumentStore)(nil)

// MockLedger is a mock type for the repository.Ledger type
type MockLedger struct {
	mock.Mock
}

func (_m *MockLedger) GetBalance(ctx context.Context, userID string) (int, error) {
	ret := _m.Called(ctx, userID)

	var r0 int
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(int)
	}
	return r0, ret.Error(1)
}

func (_m *MockLedger) Deduct(ctx context.Context, userID string, amount int, reason string, storyID *string) (int, error) {
	ret := _m.Called(ctx, userID, amount, reason, storyID)

	var r0 int
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(int)
	}
	return r0, ret.Error(1)
}

func (_m *MockLedger) Add(ctx context.Context, userID string, amount int, reason string) (int, error) {
	ret := _m.Called(ctx, userID, amount, reason)

	var r0 int
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(int)
	}
	return r0, ret.Error(1)
}

func (_m *MockLedger) History(ctx context.Context, userID string, limit int) ([]repository.CreditTransaction, error) {
	ret := _m.Called(ctx, userID, limit)

	var r0 []repository.CreditTransaction
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]repository.CreditTransaction)
	}
	return r0, ret.Error(1)
}

// NewMockLedger creates a new instance of MockLedger and registers the
// testing interface on it.
func NewMockLedger(t interface {
	mock.TestingT
	Helper()
}) *MockLedger {
	m := &MockLedger{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.Ledger = (*MockLedger)(nil)

package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/sitewatch/analytics-pipeline/internal/domain"
	"github.com/sitewatch/analytics-pipeline/internal/queue"
	"github.com/sitewatch/analytics-pipeline/internal/repository"
)

// MockQueueConsumer is a mock implementation of queue.QueueConsumer
type MockQueueConsumer struct {
	mock.Mock
}

func (m *MockQueueConsumer) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	args := m.Called(ctx, timeout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockEventRepository is a mock implementation of repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) InsertEvent(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventRepository) GetStats(ctx context.Context, query repository.StatsQuery) (*repository.StatsResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.StatsResult), args.Error(1)
}

func (m *MockEventRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestWorker(consumer queue.QueueConsumer, repo repository.EventRepository) *Worker {
	return New(consumer, repo, NewJSONEventParser(), Config{
		PopTimeout: 5 * time.Millisecond,
		Backoff:    time.Millisecond,
	}, zap.NewNop())
}

const validEntry = `{"site_id":"a","event_type":"view","path":"/pricing","user_id":"u1","timestamp":"2024-01-01T10:00:00Z"}`

func TestWorker_Wait_EmptyPopStaysWaiting(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockRepo := new(MockEventRepository)
	w := newTestWorker(mockConsumer, mockRepo)

	mockConsumer.On("Pop", mock.Anything, 5*time.Millisecond).Return(nil, queue.ErrEmpty)

	next := w.step(context.Background(), StateWaiting)

	assert.Equal(t, StateWaiting, next)
	mockRepo.AssertNotCalled(t, "InsertEvent")
}

func TestWorker_Wait_PopErrorTransitionsToBackoff(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockRepo := new(MockEventRepository)
	w := newTestWorker(mockConsumer, mockRepo)

	mockConsumer.On("Pop", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	next := w.step(context.Background(), StateWaiting)

	assert.Equal(t, StateBackoff, next)
}

func TestWorker_Wait_EntryTransitionsToProcessing(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockRepo := new(MockEventRepository)
	w := newTestWorker(mockConsumer, mockRepo)

	mockConsumer.On("Pop", mock.Anything, mock.Anything).Return([]byte(validEntry), nil)

	next := w.step(context.Background(), StateWaiting)

	assert.Equal(t, StateProcessing, next)
	assert.Equal(t, []byte(validEntry), w.pending)
}

func TestWorker_Process_ValidEntryInsertsExactlyOneRow(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockRepo := new(MockEventRepository)
	w := newTestWorker(mockConsumer, mockRepo)
	w.pending = []byte(validEntry)

	var inserted *domain.Event
	mockRepo.On("InsertEvent", mock.Anything, mock.AnythingOfType("*domain.Event")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*domain.Event)
		}).
		Return(nil).
		Once()

	next := w.step(context.Background(), StateProcessing)

	assert.Equal(t, StateWaiting, next)
	assert.Nil(t, w.pending)
	mockRepo.AssertNumberOfCalls(t, "InsertEvent", 1)

	assert.Equal(t, "a", inserted.SiteID)
	assert.Equal(t, "view", inserted.EventType)
	if assert.NotNil(t, inserted.Path) {
		assert.Equal(t, "/pricing", *inserted.Path)
	}
	if assert.NotNil(t, inserted.UserID) {
		assert.Equal(t, "u1", *inserted.UserID)
	}
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), inserted.Timestamp)
}

func TestWorker_Process_MalformedEntryIsDiscarded(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockRepo := new(MockEventRepository)
	w := newTestWorker(mockConsumer, mockRepo)
	w.pending = []byte("not json at all")

	next := w.step(context.Background(), StateProcessing)

	// Discard goes straight back to WAITING; no insert, no backoff.
	assert.Equal(t, StateWaiting, next)
	assert.Nil(t, w.pending)
	mockRepo.AssertNotCalled(t, "InsertEvent")
}

func TestWorker_Process_InsertFailureTransitionsToBackoff(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockRepo := new(MockEventRepository)
	w := newTestWorker(mockConsumer, mockRepo)
	w.pending = []byte(validEntry)

	mockRepo.On("InsertEvent", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	next := w.step(context.Background(), StateProcessing)

	assert.Equal(t, StateBackoff, next)
	// The failed entry is gone; it is never requeued.
	assert.Nil(t, w.pending)
}

func TestWorker_Backoff_ReturnsToWaiting(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockRepo := new(MockEventRepository)
	w := newTestWorker(mockConsumer, mockRepo)

	next := w.step(context.Background(), StateBackoff)

	assert.Equal(t, StateWaiting, next)
}

func TestWorker_MalformedEntryDoesNotStopThePipeline(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockRepo := new(MockEventRepository)
	w := newTestWorker(mockConsumer, mockRepo)

	mockConsumer.On("Pop", mock.Anything, mock.Anything).Return([]byte(`{broken`), nil).Once()
	mockConsumer.On("Pop", mock.Anything, mock.Anything).Return([]byte(validEntry), nil).Once()
	mockRepo.On("InsertEvent", mock.Anything, mock.Anything).Return(nil).Once()

	ctx := context.Background()
	state := StateWaiting
	for i := 0; i < 4; i++ {
		state = w.step(ctx, state)
	}

	assert.Equal(t, StateWaiting, state)
	mockRepo.AssertNumberOfCalls(t, "InsertEvent", 1)
	mockConsumer.AssertExpectations(t)
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockRepo := new(MockEventRepository)
	w := newTestWorker(mockConsumer, mockRepo)

	mockConsumer.On("Pop", mock.Anything, mock.Anything).Return(nil, queue.ErrEmpty).After(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestWorker_Run_FinishesInFlightInsertOnCancel(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockRepo := new(MockEventRepository)
	w := newTestWorker(mockConsumer, mockRepo)

	ctx, cancel := context.WithCancel(context.Background())

	// The pop hands over an entry and cancels shutdown in the same
	// breath; the insert must still happen.
	mockConsumer.On("Pop", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return([]byte(validEntry), nil).
		Once()
	mockRepo.On("InsertEvent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			insertCtx := args.Get(0).(context.Context)
			assert.NoError(t, insertCtx.Err(), "in-flight insert must run on a live context")
		}).
		Return(nil).
		Once()

	err := w.Run(ctx)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

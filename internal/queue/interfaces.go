package queue

import (
	"context"
	"errors"
	"time"
)

// ErrEmpty is returned by Pop when no entry became available within the
// timeout. It is the normal idle outcome, not a failure.
var ErrEmpty = errors.New("queue: no entry available")

// QueuePublisher defines the interface for pushing serialized events onto the queue
type QueuePublisher interface {
	Push(ctx context.Context, payload []byte) error
}

// QueueConsumer defines the interface for draining the queue. Pop blocks
// for at most timeout and delivers each entry to at most one consumer.
type QueueConsumer interface {
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
}

package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sitewatch/analytics-pipeline/internal/metrics"
	"github.com/sitewatch/analytics-pipeline/internal/queue"
	"github.com/sitewatch/analytics-pipeline/internal/repository"
)

// State is the worker loop's position between steps.
type State int

const (
	// StateWaiting blocks on the queue pop until an entry arrives or the
	// pop timeout fires.
	StateWaiting State = iota
	// StateProcessing parses the popped entry and inserts it.
	StateProcessing
	// StateBackoff sleeps after a transport or store failure so a
	// persistent error does not become a hot loop.
	StateBackoff
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateProcessing:
		return "processing"
	case StateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

// Config configures the worker loop
type Config struct {
	// PopTimeout bounds each blocking pop. It is a liveness check, not a
	// backoff: an empty pop loops straight back into another pop.
	PopTimeout time.Duration
	// Backoff is the fixed sleep after a pop or insert failure.
	Backoff time.Duration
	// InsertTimeout bounds the in-flight insert, including the one
	// allowed to finish during shutdown.
	InsertTimeout time.Duration
}

// Worker drains the queue and persists events, one sequential
// pop→parse→insert stream per instance. Scale by running more worker
// processes against the same key; the pop delivers each entry to at most
// one of them. An entry that fails its insert is already off the queue
// and is lost; delivery to the store is at-most-once.
type Worker struct {
	consumer queue.QueueConsumer
	repo     repository.EventRepository
	parser   MessageParser
	cfg      Config
	log      *zap.Logger

	// entry popped in WAITING, consumed by PROCESSING
	pending []byte
}

// New creates a new worker
func New(consumer queue.QueueConsumer, repo repository.EventRepository, parser MessageParser, cfg Config, log *zap.Logger) *Worker {
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 5 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.InsertTimeout <= 0 {
		cfg.InsertTimeout = 10 * time.Second
	}

	return &Worker{
		consumer: consumer,
		repo:     repo,
		parser:   parser,
		cfg:      cfg,
		log:      log,
	}
}

// Run executes the loop until ctx is cancelled. Cancellation is
// cooperative: no new pop is started, an entry already popped is still
// parsed and inserted, then the loop exits.
func (w *Worker) Run(ctx context.Context) error {
	state := StateWaiting

	for {
		if ctx.Err() != nil && state != StateProcessing {
			w.log.Info("Worker shutting down", zap.String("state", state.String()))
			return nil
		}
		state = w.step(ctx, state)
	}
}

// step performs exactly one state transition.
func (w *Worker) step(ctx context.Context, state State) State {
	switch state {
	case StateProcessing:
		return w.process(ctx)
	case StateBackoff:
		return w.backoff(ctx)
	default:
		return w.wait(ctx)
	}
}

func (w *Worker) wait(ctx context.Context) State {
	payload, err := w.consumer.Pop(ctx, w.cfg.PopTimeout)
	if errors.Is(err, queue.ErrEmpty) {
		return StateWaiting
	}
	if err != nil {
		if ctx.Err() != nil {
			return StateWaiting
		}
		w.log.Error("Failed to pop from queue", zap.Error(err))
		return StateBackoff
	}

	w.pending = payload
	return StateProcessing
}

func (w *Worker) process(ctx context.Context) State {
	payload := w.pending
	w.pending = nil

	event, err := w.parser.Parse(payload)
	if err != nil {
		// Malformed entry: log and drop. No retry, no dead-letter.
		metrics.EventsDiscarded.Inc()
		w.log.Warn("Discarding malformed queue entry", zap.Error(err))
		return StateWaiting
	}

	// The insert runs on a detached context so a shutdown signal can't
	// abandon an entry that was already popped.
	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.InsertTimeout)
	defer cancel()

	if err := w.repo.InsertEvent(insertCtx, event); err != nil {
		// The entry came off the queue before the insert was attempted,
		// so it is lost here.
		metrics.PersistFailures.Inc()
		w.log.Error("Failed to insert event, entry lost",
			zap.String("site_id", event.SiteID),
			zap.String("event_type", event.EventType),
			zap.Error(err))
		return StateBackoff
	}

	metrics.EventsPersisted.Inc()
	w.log.Debug("Event persisted",
		zap.String("site_id", event.SiteID),
		zap.String("event_type", event.EventType))
	return StateWaiting
}

func (w *Worker) backoff(ctx context.Context) State {
	timer := time.NewTimer(w.cfg.Backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	return StateWaiting
}

package track

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Submission is one dataset item's result: the run linkage plus its scores.
type Submission struct {
	RunItem RunItem
	Scores  map[string]float64
}

// SinkConfig configures the result sink.
type SinkConfig struct {
	Client      *Client
	Concurrency int // number of concurrent submitters (default: 4)
	QueueSize   int // buffer size (default: 256)
	Logger      *slog.Logger
}

// Sink submits per-item results to the tracking platform asynchronously.
// Results arrive from concurrent workers in no particular order; the sink
// makes no ordering guarantee and needs none.
type Sink struct {
	client *Client
	logger *slog.Logger

	queue chan Submission

	wg       sync.WaitGroup
	stopOnce sync.Once
	closedMu sync.RWMutex
	closed   bool
}

// NewSink creates a result sink.
func NewSink(cfg SinkConfig) *Sink {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Sink{
		client: cfg.Client,
		logger: cfg.Logger,
		queue:  make(chan Submission, cfg.QueueSize),
	}
}

// Start launches the submitter workers. They drain the queue until Stop.
func (s *Sink) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 4
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.run(ctx)
	}
}

// Submit enqueues one result. Returns ErrSinkClosed after Stop.
func (s *Sink) Submit(sub Submission) error {
	s.closedMu.RLock()
	defer s.closedMu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.queue <- sub
	return nil
}

// Stop closes the queue and waits for in-flight submissions to finish.
func (s *Sink) Stop() {
	s.stopOnce.Do(func() {
		s.closedMu.Lock()
		s.closed = true
		s.closedMu.Unlock()
		close(s.queue)
		s.wg.Wait()
	})
}

func (s *Sink) run(ctx context.Context) {
	defer s.wg.Done()
	for sub := range s.queue {
		s.submit(ctx, sub)
	}
}

func (s *Sink) submit(ctx context.Context, sub Submission) {
	// Submissions from a cancelled run still get a short grace window so
	// completed items are not lost on shutdown.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
	}

	if err := s.client.CreateRunItem(ctx, &sub.RunItem); err != nil {
		s.logger.Error("failed to submit run item",
			"item", sub.RunItem.DatasetItemID, "error", err)
		return
	}

	for name, value := range sub.Scores {
		err := s.client.CreateScore(ctx, &Score{
			TraceID: sub.RunItem.TraceID,
			Name:    name,
			Value:   value,
		})
		if err != nil {
			s.logger.Error("failed to submit score",
				"item", sub.RunItem.DatasetItemID, "metric", name, "error", err)
		}
	}
}

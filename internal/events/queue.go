package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jwebster45206/fast-dialogue/pkg/observer"
)

const publishTimeout = 5 * time.Second

// Publisher is the sink the queue drains into
type Publisher interface {
	NewEvent(out observer.Outcome) Event
	Publish(ctx context.Context, event Event) error
}

// Queue hands observer outcomes to a background publisher. Report never
// blocks the tick: when the buffer is full the event is dropped.
type Queue struct {
	publisher Publisher
	events    chan Event
	logger    *slog.Logger

	mu      sync.Mutex
	dropped int
	done    chan struct{}
	once    sync.Once
}

var _ observer.Reporter = (*Queue)(nil)

func NewQueue(publisher Publisher, buffer int, logger *slog.Logger) *Queue {
	return &Queue{
		publisher: publisher,
		events:    make(chan Event, buffer),
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Report implements observer.Reporter
func (q *Queue) Report(out observer.Outcome) {
	event := q.publisher.NewEvent(out)
	select {
	case q.events <- event:
	default:
		q.mu.Lock()
		q.dropped++
		q.mu.Unlock()
		q.logger.Warn("Event queue full, dropping event", "event_type", event.Type)
	}
}

// Run publishes queued events until ctx is cancelled, then drains what is
// left with a fresh timeout.
func (q *Queue) Run(ctx context.Context) {
	defer q.once.Do(func() { close(q.done) })

	for {
		select {
		case <-ctx.Done():
			q.drain()
			return
		case event := <-q.events:
			q.publish(context.Background(), event)
		}
	}
}

// Done is closed when Run returns
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *Queue) drain() {
	for {
		select {
		case event := <-q.events:
			q.publish(context.Background(), event)
		default:
			return
		}
	}
}

func (q *Queue) publish(parent context.Context, event Event) {
	ctx, cancel := context.WithTimeout(parent, publishTimeout)
	defer cancel()

	// publish failures never reach the observer
	if err := q.publisher.Publish(ctx, event); err != nil {
		q.logger.Error("Failed to publish interception event", "error", err, "event_type", event.Type)
	}
}

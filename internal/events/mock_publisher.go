package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/fast-dialogue/pkg/observer"
)

// MockPublisher is a mock implementation of Publisher for testing
type MockPublisher struct {
	PublishFunc func(ctx context.Context, event Event) error

	// Track calls for testing
	mu           sync.Mutex
	PublishCalls []Event
}

var _ Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		PublishCalls: make([]Event, 0),
	}
}

func (m *MockPublisher) NewEvent(out observer.Outcome) Event {
	return Event{
		ID:          uuid.New(),
		Type:        TypeOf(out.Decision),
		CharacterID: out.CharacterID,
		OriginID:    out.OriginID,
		Rule:        out.Rule,
		Time:        time.Now().UTC(),
	}
}

func (m *MockPublisher) Publish(ctx context.Context, event Event) error {
	m.mu.Lock()
	m.PublishCalls = append(m.PublishCalls, event)
	m.mu.Unlock()

	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}

	// Default behavior - success
	return nil
}

// Published returns a copy of the events seen so far
func (m *MockPublisher) Published() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.PublishCalls))
	copy(out, m.PublishCalls)
	return out
}

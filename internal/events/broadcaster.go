package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/fast-dialogue/pkg/observer"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeIntercepted EventType = "dialogue.intercepted"
	EventTypeKept        EventType = "dialogue.kept"
	EventTypeNotHostile  EventType = "dialogue.not_hostile"
	EventTypeTutorial    EventType = "dialogue.tutorial"
	EventTypePermitted   EventType = "dialogue.permitted"
	EventTypeResumed     EventType = "dialogue.resumed"
)

// TypeOf maps an observer decision to its event type
func TypeOf(d observer.Decision) EventType {
	return EventType("dialogue." + string(d))
}

// Event is one interception decision as published to Redis
type Event struct {
	ID          uuid.UUID `json:"id"`
	Type        EventType `json:"type"`
	SessionID   string    `json:"session_id"`
	CharacterID string    `json:"character_id,omitempty"`
	OriginID    string    `json:"origin_id,omitempty"`
	Rule        string    `json:"rule,omitempty"`
	Time        time.Time `json:"time"`
}

// Broadcaster publishes decision events to Redis Pub/Sub and keeps a capped
// list of recent events plus per-type counters for the session
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
	sessionID   uuid.UUID
	recentLimit int64
}

// Ensure Broadcaster implements Publisher interface
var _ Publisher = (*Broadcaster)(nil)

// NewClient parses a redis URL (bare host:port is accepted) and returns a client
func NewClient(redisURL string) (*redis.Client, error) {
	if !strings.Contains(redisURL, "://") {
		redisURL = "redis://" + redisURL
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return redis.NewClient(opt), nil
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, sessionID uuid.UUID, recentLimit int, logger *slog.Logger) *Broadcaster {
	if recentLimit <= 0 {
		recentLimit = 50
	}
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
		sessionID:   sessionID,
		recentLimit: int64(recentLimit),
	}
}

// NewEvent builds the event for an observer outcome
func (b *Broadcaster) NewEvent(out observer.Outcome) Event {
	return Event{
		ID:          uuid.New(),
		Type:        TypeOf(out.Decision),
		SessionID:   b.sessionID.String(),
		CharacterID: out.CharacterID,
		OriginID:    out.OriginID,
		Rule:        out.Rule,
		Time:        time.Now().UTC(),
	}
}

func (b *Broadcaster) Channel() string {
	return fmt.Sprintf("fastdialogue-events:%s", b.sessionID)
}

func (b *Broadcaster) recentKey() string {
	return fmt.Sprintf("fastdialogue:recent:%s", b.sessionID)
}

func (b *Broadcaster) statsKey() string {
	return fmt.Sprintf("fastdialogue:stats:%s", b.sessionID)
}

// Publish sends the event to subscribers and records it
func (b *Broadcaster) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := b.redisClient.TxPipeline()
	pipe.Publish(ctx, b.Channel(), data)
	pipe.LPush(ctx, b.recentKey(), data)
	pipe.LTrim(ctx, b.recentKey(), 0, b.recentLimit-1)
	pipe.HIncrBy(ctx, b.statsKey(), string(event.Type), 1)
	if _, err := pipe.Exec(ctx); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", b.Channel())
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", b.Channel(),
		"event_type", event.Type,
		"character", event.CharacterID,
	)
	return nil
}

// Recent returns up to n recorded events, newest first
func (b *Broadcaster) Recent(ctx context.Context, n int) ([]Event, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := b.redisClient.LRange(ctx, b.recentKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent events: %w", err)
	}

	events := make([]Event, 0, len(raw))
	for _, r := range raw {
		var e Event
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			b.logger.Warn("Skipping malformed event", "error", err)
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

// Stats returns how many events of each type were recorded
func (b *Broadcaster) Stats(ctx context.Context) (map[EventType]int64, error) {
	raw, err := b.redisClient.HGetAll(ctx, b.statsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read event stats: %w", err)
	}

	stats := make(map[EventType]int64, len(raw))
	for k, v := range raw {
		var n int64
		if _, err := fmt.Sscan(v, &n); err != nil {
			return nil, fmt.Errorf("bad counter %s=%q: %w", k, v, err)
		}
		stats[EventType(k)] = n
	}
	return stats, nil
}

// Subscribe listens on the session channel
func (b *Broadcaster) Subscribe(ctx context.Context) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, b.Channel())
}

func (b *Broadcaster) Ping(ctx context.Context) error {
	if err := b.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (b *Broadcaster) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := b.Ping(ctx); err != nil {
			b.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		b.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (b *Broadcaster) Close() error {
	if err := b.redisClient.Close(); err != nil {
		b.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	b.logger.Info("Redis connection closed")
	return nil
}

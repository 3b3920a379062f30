package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"dexter/pkg/domain"
)

// Event is the stream form of a committed notification.
type Event struct {
	StreamID       string
	NotificationID string
	SenderID       string
	RecipientID    string
	EventType      domain.EventType
	ResourceType   domain.ResourceType
	ResourceID     string
	CreatedAt      time.Time
}

// FromNotification builds the stream event for n.
func FromNotification(n domain.Notification) (Event, error) {
	if n.Resource == nil {
		return Event{}, domain.ErrUnknownResource
	}
	return Event{
		NotificationID: n.ID,
		SenderID:       n.SenderID,
		RecipientID:    n.RecipientID,
		EventType:      n.EventType,
		ResourceType:   n.Resource.Type(),
		ResourceID:     n.Resource.ID(),
		CreatedAt:      n.CreatedAt,
	}, nil
}

// Publisher fans committed notifications out to listeners.
type Publisher interface {
	Publish(ctx context.Context, notes ...domain.Notification) error
}

// NopPublisher drops every notification.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...domain.Notification) error { return nil }

type RedisPublisherConfig struct {
	Stream    string
	MaxLen    int64
	Block     time.Duration
	ClaimIdle time.Duration
	ReadCount int64
	// Registerer receives dexter_notifications_published_total when set.
	Registerer prometheus.Registerer
}

// RedisPublisher appends notification events to a capped Redis stream and
// reads them back through consumer groups.
type RedisPublisher struct {
	client    *redis.Client
	stream    string
	maxLen    int64
	block     time.Duration
	claimIdle time.Duration
	readCount int64
	published prometheus.Counter
	groups    sync.Map
}

func NewRedisPublisher(client *redis.Client, cfg RedisPublisherConfig) (*RedisPublisher, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		return nil, errors.New("notification stream required")
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	block := cfg.Block
	if block <= 0 {
		block = 5 * time.Second
	}
	claimIdle := cfg.ClaimIdle
	if claimIdle <= 0 {
		claimIdle = 30 * time.Second
	}
	readCount := cfg.ReadCount
	if readCount <= 0 {
		readCount = 10
	}
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dexter_notifications_published_total",
		Help: "Notification events appended to the stream.",
	})
	if cfg.Registerer != nil {
		cfg.Registerer.MustRegister(published)
	}
	return &RedisPublisher{
		client:    client,
		stream:    stream,
		maxLen:    maxLen,
		block:     block,
		claimIdle: claimIdle,
		readCount: readCount,
		published: published,
	}, nil
}

// Publish appends one stream entry per notification in a single pipeline.
func (p *RedisPublisher) Publish(ctx context.Context, notes ...domain.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	pipe := p.client.Pipeline()
	for _, n := range notes {
		ev, err := FromNotification(n)
		if err != nil {
			return fmt.Errorf("notification %s: %w", n.ID, err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: p.maxLen,
			Approx: true,
			Values: encodeEvent(ev),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish notifications: %w", err)
	}
	p.published.Add(float64(len(notes)))
	return nil
}

// Subscribe delivers events to handler through consumer group until ctx is
// done. Entries are acknowledged when handler returns nil; failed entries
// stay pending and are reclaimed after ClaimIdle.
func (p *RedisPublisher) Subscribe(ctx context.Context, group, consumer string, handler func(context.Context, Event) error) error {
	if err := p.ensureGroup(ctx, group); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		msgs, err := p.Read(ctx, group, consumer)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("events: read failed", "stream", p.stream, "err", err)
			continue
		}
		for _, msg := range msgs {
			ev := decodeEvent(msg)
			if err := handler(ctx, ev); err != nil {
				slog.Warn("events: handler failed", "stream_id", msg.ID, "err", err)
				continue
			}
			if err := p.client.XAck(context.WithoutCancel(ctx), p.stream, group, msg.ID).Err(); err != nil {
				slog.Warn("events: ack failed", "stream_id", msg.ID, "err", err)
			}
		}
	}
}

// Read returns reclaimed idle entries, or else up to ReadCount new ones,
// blocking for at most Block.
func (p *RedisPublisher) Read(ctx context.Context, group, consumer string) ([]redis.XMessage, error) {
	if err := p.ensureGroup(ctx, group); err != nil {
		return nil, err
	}
	claimed, _, err := p.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   p.stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  p.claimIdle,
		Start:    "0-0",
		Count:    p.readCount,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	if len(claimed) > 0 {
		return claimed, nil
	}
	streams, err := p.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{p.stream, ">"},
		Count:    p.readCount,
		Block:    p.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []redis.XMessage
	for _, s := range streams {
		out = append(out, s.Messages...)
	}
	return out, nil
}

func (p *RedisPublisher) ensureGroup(ctx context.Context, group string) error {
	if _, ok := p.groups.Load(group); ok {
		return nil
	}
	err := p.client.XGroupCreateMkStream(ctx, p.stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", group, err)
	}
	p.groups.Store(group, struct{}{})
	return nil
}

func encodeEvent(ev Event) map[string]any {
	return map[string]any{
		"notification_id": ev.NotificationID,
		"sender_id":       ev.SenderID,
		"recipient_id":    ev.RecipientID,
		"event_type":      string(ev.EventType),
		"resource_type":   string(ev.ResourceType),
		"resource_id":     ev.ResourceID,
		"created_at":      ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeEvent(msg redis.XMessage) Event {
	get := func(k string) string {
		v, _ := msg.Values[k].(string)
		return v
	}
	ev := Event{
		StreamID:       msg.ID,
		NotificationID: get("notification_id"),
		SenderID:       get("sender_id"),
		RecipientID:    get("recipient_id"),
		EventType:      domain.EventType(get("event_type")),
		ResourceType:   domain.ResourceType(get("resource_type")),
		ResourceID:     get("resource_id"),
	}
	if t, err := time.Parse(time.RFC3339Nano, get("created_at")); err == nil {
		ev.CreatedAt = t
	}
	return ev
}

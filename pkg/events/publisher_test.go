package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"dexter/pkg/domain"
)

func newTestPublisher(t *testing.T, reg prometheus.Registerer) (*RedisPublisher, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	p, err := NewRedisPublisher(client, RedisPublisherConfig{
		Stream:     "test:notifications",
		Block:      10 * time.Millisecond,
		Registerer: reg,
	})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	return p, client
}

func sampleNotification(id string) domain.Notification {
	return domain.Notification{
		ID:          id,
		SenderID:    "user-a",
		RecipientID: "user-b",
		EventType:   domain.EventMention,
		Resource:    domain.MessageResource{MessageID: "msg-1"},
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublishAppendsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, client := newTestPublisher(t, reg)
	ctx := context.Background()

	if err := p.Publish(ctx, sampleNotification("n-1"), sampleNotification("n-2")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	n, err := client.XLen(ctx, "test:notifications").Result()
	if err != nil {
		t.Fatalf("xlen: %v", err)
	}
	if n != 2 {
		t.Fatalf("stream length = %d, want 2", n)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var published float64
	for _, f := range families {
		if f.GetName() == "dexter_notifications_published_total" {
			published = f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	if published != 2 {
		t.Fatalf("published counter = %v, want 2", published)
	}
}

func TestPublishRejectsMissingResource(t *testing.T) {
	p, client := newTestPublisher(t, nil)
	ctx := context.Background()
	bad := sampleNotification("n-1")
	bad.Resource = nil
	if err := p.Publish(ctx, bad); !errors.Is(err, domain.ErrUnknownResource) {
		t.Fatalf("expected unknown resource, got %v", err)
	}
	n, err := client.XLen(ctx, "test:notifications").Result()
	if err != nil {
		t.Fatalf("xlen: %v", err)
	}
	if n != 0 {
		t.Fatalf("nothing should be appended, got %d", n)
	}
}

func TestReadDecodesEvents(t *testing.T) {
	p, _ := newTestPublisher(t, nil)
	ctx := context.Background()
	if err := p.Publish(ctx, sampleNotification("n-1")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	msgs, err := p.Read(ctx, "readers", "r-1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	ev := decodeEvent(msgs[0])
	want := Event{
		StreamID:       msgs[0].ID,
		NotificationID: "n-1",
		SenderID:       "user-a",
		RecipientID:    "user-b",
		EventType:      domain.EventMention,
		ResourceType:   domain.ResourceMessage,
		ResourceID:     "msg-1",
		CreatedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if ev != want {
		t.Fatalf("event = %+v, want %+v", ev, want)
	}
}

func TestSubscribeAcknowledgesHandledEvents(t *testing.T) {
	p, client := newTestPublisher(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := p.Publish(ctx, sampleNotification("n-1")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got := make(chan Event, 1)
	done := make(chan error, 1)
	go func() {
		done <- p.Subscribe(ctx, "delivery", "d-1", func(_ context.Context, ev Event) error {
			got <- ev
			return nil
		})
	}()

	select {
	case ev := <-got:
		if ev.NotificationID != "n-1" {
			t.Fatalf("notification id = %q", ev.NotificationID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pending, err := client.XPending(context.Background(), "test:notifications", "delivery").Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	if pending.Count != 0 {
		t.Fatalf("expected no pending entries, got %d", pending.Count)
	}
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSessionCodecRoundTrip(t *testing.T) {
	c, err := NewSessionCodec(testSecret, time.Hour, SessionOptions{})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	token, err := c.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := c.UserID(context.Background(), token)
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	if id != "user-1" {
		t.Fatalf("subject = %q, want user-1", id)
	}
}

func TestSessionCodecRejectsShortSecret(t *testing.T) {
	if _, err := NewSessionCodec("short", time.Hour, SessionOptions{}); err == nil {
		t.Fatalf("expected short secret to fail")
	}
}

func TestSessionCodecEnforcesAudience(t *testing.T) {
	signing, err := NewSessionCodec(testSecret, time.Hour, SessionOptions{Audience: "aud-a"})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	verify, err := NewSessionCodec(testSecret, time.Hour, SessionOptions{Audience: "aud-b"})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	token, err := signing.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verify.UserID(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected audience mismatch to fail, got %v", err)
	}
}

func TestSessionCodecRejectsOtherSecret(t *testing.T) {
	a, _ := NewSessionCodec(testSecret, time.Hour, SessionOptions{})
	b, _ := NewSessionCodec("fedcba9876543210fedcba9876543210", time.Hour, SessionOptions{})
	token, err := a.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.UserID(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature mismatch, got %v", err)
	}
}

func TestSessionCodecRevokesWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c, err := NewSessionCodec(testSecret, time.Hour, SessionOptions{Revoker: NewRedisRevoker(client)})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	ctx := context.Background()
	token, err := c.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := c.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := c.UserID(ctx, token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected revoked token, got %v", err)
	}
	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected one revocation key, got %v", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}
}

func TestMemoryRevokerExpires(t *testing.T) {
	r := NewMemoryRevoker()
	ctx := context.Background()
	if err := r.Revoke(ctx, "jti-1", time.Millisecond); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	revoked, err := r.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatalf("expected revocation to lapse")
	}
	if err := r.Revoke(ctx, "jti-2", 0); err != nil {
		t.Fatalf("revoke zero ttl: %v", err)
	}
	if revoked, _ := r.IsRevoked(ctx, "jti-2"); revoked {
		t.Fatalf("zero ttl should not revoke")
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dexter/pkg/domain"
	"dexter/pkg/events"
	"dexter/pkg/storage"
	"dexter/pkg/store"
)

// Config holds the collaborators of the application service.
type Config struct {
	Store          store.Store
	Events         events.Publisher
	Objects        storage.ObjectStore
	InviteTTL      time.Duration
	DownloadURLTTL time.Duration
	// InviteLimiter bounds invites per inviter; nil disables the limit.
	InviteLimiter Limiter
}

// Limiter bounds how often a key may act.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// App runs the multi-statement workflows over the store. Each workflow is one
// transaction; its notifications are published after commit.
type App struct {
	store       store.Store
	events      events.Publisher
	objects     storage.ObjectStore
	inviteTTL   time.Duration
	downloadTTL time.Duration
	limiter     Limiter
	now         func() time.Time
}

func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("store required")
	}
	pub := cfg.Events
	if pub == nil {
		pub = events.NopPublisher{}
	}
	inviteTTL := cfg.InviteTTL
	if inviteTTL <= 0 {
		inviteTTL = 7 * 24 * time.Hour
	}
	downloadTTL := cfg.DownloadURLTTL
	if downloadTTL <= 0 {
		downloadTTL = 15 * time.Minute
	}
	return &App{
		store:       cfg.Store,
		events:      pub,
		objects:     cfg.Objects,
		inviteTTL:   inviteTTL,
		downloadTTL: downloadTTL,
		limiter:     cfg.InviteLimiter,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// inTx runs fn in a transaction and publishes the notifications it collected
// once the transaction has committed.
func (a *App) inTx(ctx context.Context, fn func(tx store.Store, out *outbox) error) error {
	box := &outbox{}
	if err := a.store.WithTx(ctx, func(tx store.Store) error {
		return fn(tx, box)
	}); err != nil {
		return err
	}
	a.publish(ctx, box.notes)
	return nil
}

func (a *App) publish(ctx context.Context, notes []domain.Notification) {
	if len(notes) == 0 {
		return
	}
	if err := a.events.Publish(ctx, notes...); err != nil {
		// Rows are committed; subscribers catch up from ListNotifications.
		slog.Warn("app: publish notifications failed", "count", len(notes), "err", err)
	}
}

// outbox collects notifications written inside a transaction.
type outbox struct {
	notes []domain.Notification
}

// notify writes one notification per distinct recipient other than sender.
func (o *outbox) notify(ctx context.Context, tx store.Store, senderID string, recipients []string, event domain.EventType, res domain.Resource) error {
	seen := map[string]bool{senderID: true}
	for _, r := range recipients {
		if seen[r] {
			continue
		}
		seen[r] = true
		n, err := tx.CreateNotification(ctx, domain.Notification{
			SenderID:    senderID,
			RecipientID: r,
			EventType:   event,
			Resource:    res,
		})
		if err != nil {
			return fmt.Errorf("notify %s: %w", event, err)
		}
		o.notes = append(o.notes, n)
	}
	return nil
}

// Inbox lists a user's notifications, newest first.
func (a *App) Inbox(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	return a.store.ListNotifications(ctx, userID, unreadOnly)
}

// MarkRead marks one of the user's notifications read. Marking a read
// notification again is a no-op.
func (a *App) MarkRead(ctx context.Context, userID, notificationID string) error {
	notes, err := a.store.ListNotifications(ctx, userID, false)
	if err != nil {
		return err
	}
	for _, n := range notes {
		if n.ID != notificationID {
			continue
		}
		if n.IsRead {
			return nil
		}
		return a.store.MarkNotificationRead(ctx, notificationID)
	}
	return store.ErrNotFound
}

package store

import (
	"context"
	"fmt"

	"dexter/pkg/domain"
)

// CreateNotification flattens the tagged resource into its sidecar columns.
func (s *GormStore) CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	if err := validate(n); err != nil {
		return domain.Notification{}, s.metrics.reject(err)
	}
	n.ID = ensureID(n.ID)
	n.CreatedAt = stamp(n.CreatedAt)
	model, err := notificationToModel(n)
	if err != nil {
		return domain.Notification{}, s.metrics.reject(fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return domain.Notification{}, s.fail(err)
	}
	return n, nil
}

// ListNotifications returns a recipient's notifications newest first.
func (s *GormStore) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error) {
	query := s.conn(ctx).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	var models []NotificationModel
	if err := query.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, s.fail(err)
	}
	return notificationsFromModels(models)
}

func notificationsFromModels(models []NotificationModel) ([]domain.Notification, error) {
	out := make([]domain.Notification, 0, len(models))
	for _, m := range models {
		n, err := notificationFromModel(m)
		if err != nil {
			return nil, fmt.Errorf("notification %s: %w", m.ID, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// MarkNotificationRead flips is_read, the only mutable notification column.
func (s *GormStore) MarkNotificationRead(ctx context.Context, id string) error {
	return s.affected(s.conn(ctx).Model(&NotificationModel{}).Where("id = ?", id).Update("is_read", true))
}

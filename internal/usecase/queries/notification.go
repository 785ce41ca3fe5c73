package queries

import (
	"context"

	"github.com/google/uuid"
)

const defaultNotificationLimit = 50

type NotificationQueries interface {
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]NotificationView, error)
}

type NotificationViewRepo interface {
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int32) ([]NotificationView, error)
}

type notificationQueriesImpl struct {
	repo NotificationViewRepo
}

func NewNotificationQueries(repo NotificationViewRepo) NotificationQueries {
	return &notificationQueriesImpl{repo: repo}
}

func (q *notificationQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]NotificationView, error) {
	if limit <= 0 || limit > defaultNotificationLimit {
		limit = defaultNotificationLimit
	}
	return q.repo.ListByUser(ctx, userID, unreadOnly, int32(limit))
}

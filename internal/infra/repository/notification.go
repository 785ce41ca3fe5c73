package repository

import (
	"context"
	"time"

	"classcribe/internal/domain/notification"
	"classcribe/internal/infra"
	"classcribe/internal/infra/db"

	"github.com/google/uuid"
)

type NotificationRepository struct {
	db db.DBTX
}

func NewNotificationRepository(dbtx db.DBTX) *NotificationRepository {
	return &NotificationRepository{db: dbtx}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) (uuid.UUID, error) {
	const q = `
		INSERT INTO notifications (id, user_id, type, title, message, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, q, n.ID(), n.UserID(), n.Kind().String(), n.Title(), n.Message(), n.Data()).Scan(&id)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create notification", err)
	}

	return id, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	const q = `
		UPDATE notifications SET read_at = $3
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL`

	tag, err := r.db.Exec(ctx, q, id, userID, at)
	if err != nil {
		return infra.WrapRepoErr("failed to mark notification read", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("notification not found", nil, infra.KindNotFound)
	}

	return nil
}

func (r *NotificationRepository) MarkEmailSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	const q = `UPDATE notifications SET email_sent_at = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, q, id, at)
	if err != nil {
		return infra.WrapRepoErr("failed to mark notification email sent", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("notification not found", nil, infra.KindNotFound)
	}

	return nil
}

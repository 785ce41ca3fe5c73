package readstore

import (
	"context"

	"classcribe/internal/domain/notification"
	"classcribe/internal/infra"
	"classcribe/internal/infra/db"
	"classcribe/internal/usecase/queries"

	"github.com/google/uuid"
)

type NotificationReadStore struct {
	db db.DBTX
}

func NewNotificationReadStore(dbtx db.DBTX) *NotificationReadStore {
	return &NotificationReadStore{db: dbtx}
}

func (s *NotificationReadStore) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int32) ([]queries.NotificationView, error) {
	q := `
		SELECT id, type, title, message, data, read_at, email_sent_at, created_at
		FROM notifications
		WHERE user_id = $1`
	if unreadOnly {
		q += ` AND read_at IS NULL`
	}
	q += `
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list notifications", err)
	}
	defer rows.Close()

	out := make([]queries.NotificationView, 0)
	for rows.Next() {
		var v queries.NotificationView
		if err := rows.Scan(&v.ID, &v.Type, &v.Title, &v.Message, &v.Data, &v.ReadAt, &v.EmailSentAt, &v.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan notification row", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate notification rows", err)
	}

	return out, nil
}

// PreferenceFor falls back to the default (everything on) when the user never
// saved an explicit preference for this notification type.
func (s *NotificationReadStore) PreferenceFor(ctx context.Context, userID uuid.UUID, kind notification.Type) (notification.Preference, error) {
	const q = `
		SELECT in_app, email
		FROM notification_preferences
		WHERE user_id = $1 AND type = $2`

	var pref notification.Preference
	err := s.db.QueryRow(ctx, q, userID, kind.String()).Scan(&pref.InApp, &pref.Email)
	if err != nil {
		if infra.IsNoRows(err) {
			return notification.DefaultPreference(), nil
		}
		return notification.Preference{}, infra.WrapRepoErr("failed to read notification preference", err)
	}

	return pref, nil
}

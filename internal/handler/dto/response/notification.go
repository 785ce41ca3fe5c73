package response

import (
	"encoding/json"
	"time"

	"classcribe/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type NotificationResponse struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	ReadAt    *time.Time      `json:"readAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func FromNotificationViews(views []queries.NotificationView) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(views))
	_ = copier.Copy(&out, views)
	return out
}

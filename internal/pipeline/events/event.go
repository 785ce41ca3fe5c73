package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is one broadcast fact. Payload values must already be sanitized;
// the hub never inspects them again.
type Event struct {
	ID      uuid.UUID      `json:"id"`
	Topic   string         `json:"topic"`
	Kind    string         `json:"kind"`
	Payload map[string]any `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}

func LessonTopic(lessonID uuid.UUID) string {
	return fmt.Sprintf("lesson:%s", lessonID)
}

func UserTopic(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s", userID)
}

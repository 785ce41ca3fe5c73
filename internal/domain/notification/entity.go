package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidType = errors.New("invalid notification type")
	ErrEmptyTitle  = errors.New("notification title must not be empty")
)

// Notification is an in-app message about a pipeline event. Mutated only by
// read / email-sent acknowledgements, never deleted automatically.
type Notification struct {
	id          uuid.UUID
	userID      uuid.UUID
	kind        Type
	title       string
	message     string
	data        []byte // JSON payload for the client
	readAt      *time.Time
	emailSentAt *time.Time
	createdAt   time.Time
}

func NewNotification(userID uuid.UUID, kind Type, title, message string, data []byte) (*Notification, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidType
	}
	if title == "" {
		return nil, ErrEmptyTitle
	}

	return &Notification{
		id:      uuid.New(),
		userID:  userID,
		kind:    kind,
		title:   title,
		message: message,
		data:    data,
	}, nil
}

func ReconstructNotification(
	id, userID uuid.UUID,
	kind Type,
	title, message string,
	data []byte,
	readAt, emailSentAt *time.Time,
	createdAt time.Time,
) *Notification {
	return &Notification{
		id:          id,
		userID:      userID,
		kind:        kind,
		title:       title,
		message:     message,
		data:        data,
		readAt:      readAt,
		emailSentAt: emailSentAt,
		createdAt:   createdAt,
	}
}

func (n *Notification) IsRead() bool {
	return n.readAt != nil
}

func (n *Notification) ID() uuid.UUID           { return n.id }
func (n *Notification) UserID() uuid.UUID       { return n.userID }
func (n *Notification) Kind() Type              { return n.kind }
func (n *Notification) Title() string           { return n.title }
func (n *Notification) Message() string         { return n.message }
func (n *Notification) Data() []byte            { return n.data }
func (n *Notification) ReadAt() *time.Time      { return n.readAt }
func (n *Notification) EmailSentAt() *time.Time { return n.emailSentAt }
func (n *Notification) CreatedAt() time.Time    { return n.createdAt }

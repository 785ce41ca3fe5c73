package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"

	"classcribe/internal/domain/notification"
	"classcribe/internal/pipeline/queue"
	"classcribe/internal/pkg/clock"
	"classcribe/internal/usecase/queries"
	"classcribe/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	QueueNotifications = "notifications"
	KindEmail          = "email"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type emailPayload struct {
	NotificationID *uuid.UUID `json:"notification_id,omitempty"`
	UserID         uuid.UUID  `json:"user_id"`
	Subject        string     `json:"subject"`
	Body           string     `json:"body"`
}

// Dispatcher delivers notifications on the channels each user has enabled:
// an in-app row written synchronously, email handed to the notifications
// queue. Everything is best effort; a failed delivery never fails the
// operation that triggered it.
type Dispatcher struct {
	uow     shared.UnitOfWork
	users   queries.UserViewRepo
	manager *queue.Manager
	mailer  EmailSender
	clock   clock.Clock
}

func NewDispatcher(
	uow shared.UnitOfWork,
	users queries.UserViewRepo,
	manager *queue.Manager,
	mailer EmailSender,
	clk clock.Clock,
) *Dispatcher {
	return &Dispatcher{
		uow:     uow,
		users:   users,
		manager: manager,
		mailer:  mailer,
		clock:   clk,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, userID uuid.UUID, kind notification.Type, title, message string, data map[string]any) {
	pref, err := d.uow.CommandReads().PreferenceFor(ctx, userID, kind)
	if err != nil {
		slog.Warn("failed to load notification preference, using defaults",
			"user_id", userID, "type", kind.String(), "error", err.Error())
		pref = notification.DefaultPreference()
	}

	var notifID *uuid.UUID
	if pref.InApp {
		if id, err := d.createInApp(ctx, userID, kind, title, message, data); err != nil {
			slog.Error("failed to create in-app notification",
				"user_id", userID, "type", kind.String(), "error", err.Error())
		} else {
			notifID = &id
		}
	}

	if pref.Email {
		d.enqueueEmail(ctx, notifID, userID, title, message)
	}
}

func (d *Dispatcher) createInApp(ctx context.Context, userID uuid.UUID, kind notification.Type, title, message string, data map[string]any) (uuid.UUID, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return uuid.Nil, err
	}
	entity, err := notification.NewNotification(userID, kind, title, message, raw)
	if err != nil {
		return uuid.Nil, err
	}

	err = d.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		_, createErr := tx.Notifications().Create(ctx, entity)
		return createErr
	})
	if err != nil {
		return uuid.Nil, err
	}
	return entity.ID(), nil
}

func (d *Dispatcher) enqueueEmail(ctx context.Context, notifID *uuid.UUID, userID uuid.UUID, subject, body string) {
	job, err := queue.NewJob(KindEmail, userID.String(), emailPayload{
		NotificationID: notifID,
		UserID:         userID,
		Subject:        subject,
		Body:           body,
	})
	if err != nil {
		slog.Error("failed to build email job", "user_id", userID, "error", err.Error())
		return
	}
	if err := d.manager.Enqueue(ctx, job); err != nil {
		slog.Warn("dropping email notification, queue unavailable",
			"user_id", userID, "error", err.Error())
	}
}

// HandleEmailJob is the notifications-queue worker: resolve the address,
// send, and stamp the email-sent time on the in-app row when one exists.
func (d *Dispatcher) HandleEmailJob(ctx context.Context, job queue.Job) error {
	var p emailPayload
	if err := job.Decode(&p); err != nil {
		return queue.Permanent(err)
	}

	view, err := d.users.FindByID(ctx, p.UserID)
	if err != nil {
		// Deleted users get no email; anything else is worth a retry.
		return err
	}

	if err := d.mailer.Send(ctx, view.Email, p.Subject, p.Body); err != nil {
		return err
	}

	if p.NotificationID != nil {
		err = d.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			return tx.Notifications().MarkEmailSent(ctx, *p.NotificationID, d.clock.Now())
		})
		if err != nil {
			slog.Warn("email sent but could not record it",
				"notification_id", p.NotificationID, "error", err.Error())
		}
	}
	return nil
}

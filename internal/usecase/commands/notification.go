package commands

import (
	"context"

	"classcribe/internal/infra"
	"classcribe/internal/pkg/clock"
	"classcribe/internal/pkg/errs"
	"classcribe/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrNotificationNotFound = errs.New("notification not found")

type NotificationCommands interface {
	MarkRead(ctx context.Context, actorID, notificationID uuid.UUID) error
}

type notificationCommandsImpl struct {
	uow   shared.UnitOfWork
	clock clock.Clock
}

func NewNotificationCommands(uow shared.UnitOfWork, clock clock.Clock) NotificationCommands {
	return &notificationCommandsImpl{uow: uow, clock: clock}
}

func (c *notificationCommandsImpl) MarkRead(ctx context.Context, actorID, notificationID uuid.UUID) error {
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		err := tx.Notifications().MarkRead(ctx, notificationID, actorID, c.clock.Now())
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrNotificationNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return nil
	})
}

package commands

import (
	"context"
	"errors"

	"classcribe/internal/domain/credit"
	"classcribe/internal/domain/notification"
	"classcribe/internal/infra"
	"classcribe/internal/pkg/errs"
	"classcribe/internal/usecase/shared"
)

type PaymentOutcome string

const (
	OutcomeCredited         PaymentOutcome = "credited"
	OutcomeAlreadyProcessed PaymentOutcome = "already_processed"
)

type ReconcileResult struct {
	Outcome PaymentOutcome
	Balance int32
}

type PaymentCommands interface {
	// Reconcile verifies a webhook delivery and applies it to the ledger
	// exactly once. Redelivered events come back as OutcomeAlreadyProcessed
	// without writing anything.
	Reconcile(ctx context.Context, body []byte, signature string) (*ReconcileResult, error)
}

type paymentCommandsImpl struct {
	uow      shared.UnitOfWork
	verifier WebhookVerifier
	notifier NotificationDispatcher
	events   EventPublisher
}

func NewPaymentCommands(
	uow shared.UnitOfWork,
	verifier WebhookVerifier,
	notifier NotificationDispatcher,
	events EventPublisher,
) PaymentCommands {
	return &paymentCommandsImpl{
		uow:      uow,
		verifier: verifier,
		notifier: notifier,
		events:   events,
	}
}

func (c *paymentCommandsImpl) Reconcile(ctx context.Context, body []byte, signature string) (*ReconcileResult, error) {
	evt, err := c.verifier.VerifyAndParse(body, signature)
	if err != nil {
		return nil, err
	}

	// Fast path: a prior delivery already landed this event.
	if existing, err := c.uow.CommandReads().LedgerEntryByKey(ctx, evt.ID); err == nil && existing != nil {
		return &ReconcileResult{Outcome: OutcomeAlreadyProcessed, Balance: existing.BalanceAfter}, nil
	} else if err != nil && !infra.IsKind(err, infra.KindNotFound) {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	var balance int32
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		key := evt.ID
		ref := evt.PaymentRef
		var creditErr error
		balance, creditErr = tx.Ledger().Credit(ctx, evt.UserID, evt.Credits, credit.ReasonPurchase, &key, &ref, nil)
		return creditErr
	})
	if err != nil {
		// Two deliveries raced past the fast path: the unique key aborted the
		// later transaction, so the ledger holds exactly one entry. Report the
		// winner's balance, same as the fast path.
		if infra.IsKind(err, infra.KindDuplicateKey) {
			existing, readErr := c.uow.CommandReads().LedgerEntryByKey(ctx, evt.ID)
			if readErr != nil {
				return nil, errs.Mark(readErr, errs.ErrDatabaseOperationFailed)
			}
			if existing == nil {
				return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			return &ReconcileResult{Outcome: OutcomeAlreadyProcessed, Balance: existing.BalanceAfter}, nil
		}
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrUnknownPayer)
		}
		if errors.Is(err, errs.ErrDomainValidation) {
			return nil, err
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	c.notifier.Dispatch(ctx, evt.UserID, notification.TypeCreditsPurchased,
		"Credits added",
		"Your credit purchase was applied to your account.",
		map[string]any{
			"credits": evt.Credits,
			"balance": balance,
		})

	c.events.PublishUserEvent(ctx, evt.UserID, "credits_purchased", map[string]any{
		"credits": evt.Credits,
		"balance": balance,
	})

	return &ReconcileResult{Outcome: OutcomeCredited, Balance: balance}, nil
}

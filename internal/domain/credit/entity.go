package credit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrZeroAmount      = errors.New("transaction amount must not be zero")
	ErrNegativeBalance = errors.New("balance after transaction must not be negative")
	ErrInvalidReason   = errors.New("invalid transaction reason")
	ErrAmountSign      = errors.New("transaction amount sign does not match reason")
)

// Transaction is one immutable ledger entry. Never updated or deleted; the
// user's balance is the BalanceAfter of their most recent entry.
type Transaction struct {
	id             uuid.UUID
	userID         uuid.UUID
	amount         int32
	balanceAfter   int32
	reason         Reason
	idempotencyKey *string
	paymentRef     *string
	lessonID       *uuid.UUID
	createdAt      time.Time
}

func NewTransaction(userID uuid.UUID, amount, balanceAfter int32, reason Reason, idempotencyKey, paymentRef *string, lessonID *uuid.UUID) (*Transaction, error) {
	if amount == 0 {
		return nil, ErrZeroAmount
	}
	if balanceAfter < 0 {
		return nil, ErrNegativeBalance
	}
	if !reason.IsValid() {
		return nil, ErrInvalidReason
	}
	if reason.IsDebit() != (amount < 0) {
		return nil, ErrAmountSign
	}

	return &Transaction{
		id:             uuid.New(),
		userID:         userID,
		amount:         amount,
		balanceAfter:   balanceAfter,
		reason:         reason,
		idempotencyKey: idempotencyKey,
		paymentRef:     paymentRef,
		lessonID:       lessonID,
	}, nil
}

func ReconstructTransaction(
	id, userID uuid.UUID,
	amount, balanceAfter int32,
	reason Reason,
	idempotencyKey, paymentRef *string,
	lessonID *uuid.UUID,
	createdAt time.Time,
) *Transaction {
	return &Transaction{
		id:             id,
		userID:         userID,
		amount:         amount,
		balanceAfter:   balanceAfter,
		reason:         reason,
		idempotencyKey: idempotencyKey,
		paymentRef:     paymentRef,
		lessonID:       lessonID,
		createdAt:      createdAt,
	}
}

func (t *Transaction) ID() uuid.UUID           { return t.id }
func (t *Transaction) UserID() uuid.UUID       { return t.userID }
func (t *Transaction) Amount() int32           { return t.amount }
func (t *Transaction) BalanceAfter() int32     { return t.balanceAfter }
func (t *Transaction) Reason() Reason          { return t.reason }
func (t *Transaction) IdempotencyKey() *string { return t.idempotencyKey }
func (t *Transaction) PaymentRef() *string     { return t.paymentRef }
func (t *Transaction) LessonID() *uuid.UUID    { return t.lessonID }
func (t *Transaction) CreatedAt() time.Time    { return t.createdAt }

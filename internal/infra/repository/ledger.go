package repository

import (
	"context"

	"classcribe/internal/domain/credit"
	"classcribe/internal/infra"
	"classcribe/internal/infra/db"

	"github.com/google/uuid"
)

// LedgerRepository owns the only resource in the system requiring strict
// mutual exclusion: the per-user cached balance. Both mutations are single
// conditional statements so concurrent callers serialize on the user row.
type LedgerRepository struct {
	db db.DBTX
}

func NewLedgerRepository(dbtx db.DBTX) *LedgerRepository {
	return &LedgerRepository{db: dbtx}
}

func (r *LedgerRepository) Debit(ctx context.Context, userID uuid.UUID, amount int32, reason credit.Reason, lessonID *uuid.UUID) (int32, error) {
	if amount <= 0 {
		return 0, infra.WrapRepoErr("debit amount must be positive", nil, infra.KindPrecondition)
	}

	// Conditional decrement: zero rows means the balance would go negative.
	const updateQ = `
		UPDATE users
		SET credit_balance = credit_balance - $2
		WHERE id = $1 AND credit_balance >= $2
		RETURNING credit_balance`

	var balance int32
	err := r.db.QueryRow(ctx, updateQ, userID, amount).Scan(&balance)
	if err != nil {
		if infra.IsNoRows(err) {
			return 0, infra.WrapRepoErr("insufficient credits", err, infra.KindPrecondition)
		}
		return 0, infra.WrapRepoErr("failed to debit user balance", err)
	}

	entry, err := credit.NewTransaction(userID, -amount, balance, reason, nil, nil, lessonID)
	if err != nil {
		return 0, infra.WrapRepoErr("invalid debit entry", err, infra.KindPrecondition)
	}

	if err := r.appendEntry(ctx, entry); err != nil {
		return 0, err
	}

	return balance, nil
}

func (r *LedgerRepository) Credit(ctx context.Context, userID uuid.UUID, amount int32, reason credit.Reason, idempotencyKey, paymentRef *string, lessonID *uuid.UUID) (int32, error) {
	if amount <= 0 {
		return 0, infra.WrapRepoErr("credit amount must be positive", nil, infra.KindPrecondition)
	}

	const updateQ = `
		UPDATE users
		SET credit_balance = credit_balance + $2
		WHERE id = $1
		RETURNING credit_balance`

	var balance int32
	err := r.db.QueryRow(ctx, updateQ, userID, amount).Scan(&balance)
	if err != nil {
		if infra.IsNoRows(err) {
			return 0, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return 0, infra.WrapRepoErr("failed to credit user balance", err)
	}

	entry, err := credit.NewTransaction(userID, amount, balance, reason, idempotencyKey, paymentRef, lessonID)
	if err != nil {
		return 0, infra.WrapRepoErr("invalid credit entry", err, infra.KindPrecondition)
	}

	// A duplicate idempotency key hits the unique constraint here and aborts
	// the whole transaction, undoing the counter update above. The caller
	// maps KindDuplicateKey to an at-most-once no-op.
	if err := r.appendEntry(ctx, entry); err != nil {
		return 0, err
	}

	return balance, nil
}

func (r *LedgerRepository) appendEntry(ctx context.Context, entry *credit.Transaction) error {
	const q = `
		INSERT INTO credit_transactions (id, user_id, amount, balance_after, reason, idempotency_key, payment_ref, lesson_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, q,
		entry.ID(), entry.UserID(), entry.Amount(), entry.BalanceAfter(),
		entry.Reason().String(), entry.IdempotencyKey(), entry.PaymentRef(), entry.LessonID(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to append ledger entry", err)
	}

	return nil
}

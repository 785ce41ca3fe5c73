package readstore

import (
	"context"

	"classcribe/internal/domain/credit"
	"classcribe/internal/infra"
	"classcribe/internal/infra/db"
	"classcribe/internal/usecase/queries"
	"classcribe/internal/usecase/shared"

	"github.com/google/uuid"
)

type LedgerReadStore struct {
	db db.DBTX
}

func NewLedgerReadStore(dbtx db.DBTX) *LedgerReadStore {
	return &LedgerReadStore{db: dbtx}
}

func (s *LedgerReadStore) BalanceByUser(ctx context.Context, userID uuid.UUID) (int32, error) {
	const q = `SELECT credit_balance FROM users WHERE id = $1`

	var balance int32
	if err := s.db.QueryRow(ctx, q, userID).Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return 0, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return 0, infra.WrapRepoErr("failed to read balance", err)
	}

	return balance, nil
}

func (s *LedgerReadStore) EntryByKey(ctx context.Context, idempotencyKey string) (*shared.LedgerEntrySnapshot, error) {
	const q = `
		SELECT id, user_id, amount, balance_after, reason, idempotency_key, payment_ref, lesson_id, created_at
		FROM credit_transactions
		WHERE idempotency_key = $1`

	var (
		snap      shared.LedgerEntrySnapshot
		rawReason string
	)
	err := s.db.QueryRow(ctx, q, idempotencyKey).Scan(
		&snap.ID, &snap.UserID, &snap.Amount, &snap.BalanceAfter, &rawReason,
		&snap.IdempotencyKey, &snap.PaymentRef, &snap.LessonID, &snap.CreatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("ledger entry not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find ledger entry", err)
	}
	snap.Reason = credit.Reason(rawReason)

	return &snap, nil
}

func (s *LedgerReadStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int32) ([]queries.TransactionView, error) {
	const q = `
		SELECT id, amount, balance_after, reason, payment_ref, lesson_id, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list ledger entries", err)
	}
	defer rows.Close()

	out := make([]queries.TransactionView, 0)
	for rows.Next() {
		var v queries.TransactionView
		if err := rows.Scan(&v.ID, &v.Amount, &v.BalanceAfter, &v.Reason, &v.PaymentRef, &v.LessonID, &v.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan ledger row", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate ledger rows", err)
	}

	return out, nil
}

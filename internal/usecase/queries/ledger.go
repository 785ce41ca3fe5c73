package queries

import (
	"context"

	"github.com/google/uuid"
)

const defaultTransactionLimit = 50

type CreditQueries interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (int32, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]TransactionView, error)
}

type LedgerViewRepo interface {
	BalanceByUser(ctx context.Context, userID uuid.UUID) (int32, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int32) ([]TransactionView, error)
}

type creditQueriesImpl struct {
	repo LedgerViewRepo
}

func NewCreditQueries(repo LedgerViewRepo) CreditQueries {
	return &creditQueriesImpl{repo: repo}
}

func (q *creditQueriesImpl) GetBalance(ctx context.Context, userID uuid.UUID) (int32, error) {
	return q.repo.BalanceByUser(ctx, userID)
}

func (q *creditQueriesImpl) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]TransactionView, error) {
	if limit <= 0 || limit > defaultTransactionLimit {
		limit = defaultTransactionLimit
	}
	return q.repo.ListByUser(ctx, userID, int32(limit))
}

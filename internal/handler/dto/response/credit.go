package response

import (
	"time"

	"classcribe/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BalanceResponse struct {
	Balance int32 `json:"balance"`
}

type TransactionResponse struct {
	ID           uuid.UUID  `json:"id"`
	Amount       int32      `json:"amount"`
	BalanceAfter int32      `json:"balanceAfter"`
	Reason       string     `json:"reason"`
	PaymentRef   *string    `json:"paymentRef,omitempty"`
	LessonID     *uuid.UUID `json:"lessonId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func FromTransactionViews(views []queries.TransactionView) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(views))
	_ = copier.Copy(&out, views)
	return out
}

//go:build unit

package credit_test

import (
	"testing"

	"classcribe/internal/domain/credit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction(t *testing.T) {
	userID := uuid.New()

	t.Run("基本成功ケース", func(t *testing.T) {
		key := "evt_123"
		ref := "pay_456"
		tx, err := credit.NewTransaction(userID, 10, 13, credit.ReasonPurchase, &key, &ref, nil)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, tx.ID())
		assert.Equal(t, userID, tx.UserID())
		assert.Equal(t, int32(10), tx.Amount())
		assert.Equal(t, int32(13), tx.BalanceAfter())
		assert.Equal(t, credit.ReasonPurchase, tx.Reason())
		assert.Equal(t, &key, tx.IdempotencyKey())
	})

	t.Run("デビットは負の金額", func(t *testing.T) {
		lessonID := uuid.New()
		tx, err := credit.NewTransaction(userID, -1, 2, credit.ReasonLessonAnalysis, nil, nil, &lessonID)
		require.NoError(t, err)
		assert.Equal(t, int32(-1), tx.Amount())
	})

	t.Run("検証エラー", func(t *testing.T) {
		cases := []struct {
			name         string
			amount       int32
			balanceAfter int32
			reason       credit.Reason
			errIs        error
		}{
			{name: "金額ゼロNG", amount: 0, balanceAfter: 5, reason: credit.ReasonPurchase, errIs: credit.ErrZeroAmount},
			{name: "残高マイナスNG", amount: 1, balanceAfter: -1, reason: credit.ReasonPurchase, errIs: credit.ErrNegativeBalance},
			{name: "不明な理由NG", amount: 1, balanceAfter: 5, reason: credit.Reason("lottery"), errIs: credit.ErrInvalidReason},
			{name: "デビット理由に正の金額NG", amount: 1, balanceAfter: 5, reason: credit.ReasonLessonAnalysis, errIs: credit.ErrAmountSign},
			{name: "クレジット理由に負の金額NG", amount: -1, balanceAfter: 5, reason: credit.ReasonPurchase, errIs: credit.ErrAmountSign},
			{name: "返金に負の金額NG", amount: -1, balanceAfter: 5, reason: credit.ReasonRefund, errIs: credit.ErrAmountSign},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := credit.NewTransaction(userID, tc.amount, tc.balanceAfter, tc.reason, nil, nil, nil)
				assert.ErrorIs(t, err, tc.errIs)
			})
		}
	})
}

func TestReason(t *testing.T) {
	valid := []credit.Reason{
		credit.ReasonSignupBonus, credit.ReasonLessonAnalysis, credit.ReasonPurchase,
		credit.ReasonRefund, credit.ReasonGift, credit.ReasonPromo,
	}
	for _, r := range valid {
		assert.True(t, r.IsValid(), r.String())
	}
	assert.False(t, credit.Reason("").IsValid())

	assert.True(t, credit.ReasonLessonAnalysis.IsDebit())
	assert.False(t, credit.ReasonPurchase.IsDebit())
	assert.False(t, credit.ReasonRefund.IsDebit())
}

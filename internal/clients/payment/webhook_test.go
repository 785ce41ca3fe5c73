//go:build unit

package payment_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"classcribe/internal/clients/payment"
	"classcribe/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func eventBody(userID uuid.UUID) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_001","type":"payment.completed","user_id":"%s","credits":10,"payment_ref":"pay_abc","occurred_at":"2025-06-01T09:00:00Z"}`,
		userID))
}

func TestVerifyAndParse(t *testing.T) {
	v := payment.NewVerifier(testSecret)
	userID := uuid.New()

	t.Run("基本成功ケース", func(t *testing.T) {
		body := eventBody(userID)
		evt, err := v.VerifyAndParse(body, sign(body))
		require.NoError(t, err)

		assert.Equal(t, "evt_001", evt.ID)
		assert.Equal(t, userID, evt.UserID)
		assert.Equal(t, int32(10), evt.Credits)
		assert.Equal(t, "pay_abc", evt.PaymentRef)
		assert.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), evt.OccurredAt.UTC())
	})

	t.Run("sha256=プレフィックス付きも受理", func(t *testing.T) {
		body := eventBody(userID)
		_, err := v.VerifyAndParse(body, "sha256="+sign(body))
		require.NoError(t, err)
	})

	t.Run("署名NG", func(t *testing.T) {
		body := eventBody(userID)
		cases := []struct {
			name      string
			signature string
		}{
			{name: "署名なし", signature: ""},
			{name: "署名不一致", signature: sign([]byte("other body"))},
			{name: "プレフィックスのみ", signature: "sha256="},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := v.VerifyAndParse(body, tc.signature)
				assert.ErrorIs(t, err, errs.ErrInvalidSignature)
			})
		}
	})

	t.Run("改ざんされたボディは署名NG", func(t *testing.T) {
		body := eventBody(userID)
		sig := sign(body)
		tampered := eventBody(userID)
		tampered[len(tampered)-2] ^= 0x01
		_, err := v.VerifyAndParse(tampered, sig)
		assert.ErrorIs(t, err, errs.ErrInvalidSignature)
	})

	t.Run("不正なボディNG", func(t *testing.T) {
		cases := []struct {
			name string
			body string
		}{
			{name: "JSONとして不正", body: `{not json`},
			{name: "ID欠落", body: fmt.Sprintf(`{"type":"payment.completed","user_id":"%s","credits":10}`, userID)},
			{name: "クレジットゼロ", body: fmt.Sprintf(`{"id":"evt_002","user_id":"%s","credits":0}`, userID)},
			{name: "クレジット負数", body: fmt.Sprintf(`{"id":"evt_003","user_id":"%s","credits":-5}`, userID)},
			{name: "user_id不正", body: `{"id":"evt_004","user_id":"not-a-uuid","credits":10}`},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				body := []byte(tc.body)
				_, err := v.VerifyAndParse(body, sign(body))
				assert.ErrorIs(t, err, errs.ErrMalformedEvent)
			})
		}
	})

	t.Run("別シークレットの署名NG", func(t *testing.T) {
		body := eventBody(userID)
		other := payment.NewVerifier("whsec_other")
		_, err := other.VerifyAndParse(body, sign(body))
		assert.ErrorIs(t, err, errs.ErrInvalidSignature)
	})
}

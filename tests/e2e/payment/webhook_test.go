//go:build e2e

package payment_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classcribe/internal/clients/payment"
	"classcribe/internal/domain/user"
	"classcribe/tests/common/authtest"
	"classcribe/tests/common/dbtest"
	"classcribe/tests/common/helper"
	"classcribe/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const webhookURL = "/api/webhooks/payment"

type webhookResponse struct {
	Status  string `json:"status"`
	Balance int32  `json:"balance"`
}

type webhookSuite struct {
	e2e.SharedSuite
	buyerID    uuid.UUID
	buyerToken string
}

func TestWebhookSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(webhookSuite))
}

func (s *webhookSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()

	s.buyerID = dbtest.CreateTestUser(s.T(), s.DB, "buyer@example.com", string(user.RoleTeacher))
	s.buyerToken = authtest.LoginUser(s.T(), s.Router, "buyer@example.com", "password123")
}

func (s *webhookSuite) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(s.Config.Payment.WebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *webhookSuite) eventBody(eventID string, userID uuid.UUID, credits int32) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"%s","type":"payment.completed","user_id":"%s","credits":%d,"payment_ref":"pay_%s","occurred_at":"2025-06-01T09:00:00Z"}`,
		eventID, userID, credits, eventID))
}

// 署名ヘッダー付きで生のボディを送る
func (s *webhookSuite) deliver(body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, webhookURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(payment.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *webhookSuite) ledgerCount(eventID string) int {
	var count int
	err := s.DB.QueryRow(s.T().Context(),
		"SELECT count(*) FROM credit_transactions WHERE idempotency_key = $1", eventID).Scan(&count)
	require.NoError(s.T(), err)
	return count
}

func (s *webhookSuite) TestPaymentDelivery() {
	s.Run("正常な入金反映", func() {
		t := s.T()

		body := s.eventBody("evt_100", s.buyerID, 10)
		w := s.deliver(body, s.sign(body))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var res webhookResponse
		require.NoError(t, helper.DecodeResponseBody(t, w.Body, &res))
		require.Equal(t, "credited", res.Status)
		require.Equal(t, int32(10), res.Balance)

		// 台帳の記録と残高の一致
		require.Equal(t, 1, s.ledgerCount("evt_100"))
		var balance int32
		err := s.DB.QueryRow(s.T().Context(),
			"SELECT credit_balance FROM users WHERE id = $1", s.buyerID).Scan(&balance)
		require.NoError(t, err)
		require.Equal(t, int32(10), balance)
	})

	s.Run("再配送は一度だけ反映される", func() {
		t := s.T()

		body := s.eventBody("evt_200", s.buyerID, 5)

		w := s.deliver(body, s.sign(body))
		require.Equal(t, http.StatusOK, w.Code)
		var first webhookResponse
		require.NoError(t, helper.DecodeResponseBody(t, w.Body, &first))
		require.Equal(t, "credited", first.Status)

		w = s.deliver(body, s.sign(body))
		require.Equal(t, http.StatusOK, w.Code)
		var second webhookResponse
		require.NoError(t, helper.DecodeResponseBody(t, w.Body, &second))
		require.Equal(t, "already_processed", second.Status)
		require.Equal(t, int32(5), second.Balance, "再配送は元の取引の残高を返すべき")

		require.Equal(t, 1, s.ledgerCount("evt_200"), "台帳には一件だけ記録されるべき")
		var balance int32
		err := s.DB.QueryRow(s.T().Context(),
			"SELECT credit_balance FROM users WHERE id = $1", s.buyerID).Scan(&balance)
		require.NoError(t, err)
		require.Equal(t, int32(5), balance, "再配送で二重加算されている")
	})

	s.Run("署名関連の拒否", func() {
		t := s.T()

		body := s.eventBody("evt_300", s.buyerID, 10)
		cases := []struct {
			name      string
			signature string
		}{
			{name: "署名ヘッダーなし", signature: ""},
			{name: "署名不一致", signature: s.sign([]byte("tampered"))},
			{name: "署名が不正な文字列", signature: "not-a-signature"},
		}
		for _, tc := range cases {
			w := s.deliver(body, tc.signature)
			require.Equal(t, http.StatusBadRequest, w.Code, tc.name)
		}

		require.Equal(t, 0, s.ledgerCount("evt_300"), "拒否された配送が台帳に書かれている")
	})

	s.Run("未知のユーザーはACKして無視", func() {
		t := s.T()

		body := s.eventBody("evt_400", uuid.New(), 10)
		w := s.deliver(body, s.sign(body))
		// 200で応答しないとプロバイダが永遠に再配送し続ける
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var res webhookResponse
		require.NoError(t, helper.DecodeResponseBody(t, w.Body, &res))
		require.Equal(t, "ignored", res.Status)
		require.Equal(t, 0, s.ledgerCount("evt_400"))
	})

	s.Run("不正なイベントボディは400", func() {
		t := s.T()

		cases := []struct {
			name string
			body []byte
		}{
			{name: "JSONとして壊れている", body: []byte(`{broken`)},
			{name: "クレジットがゼロ", body: s.eventBody("evt_500", s.buyerID, 0)},
			{name: "イベントID欠落", body: []byte(fmt.Sprintf(`{"user_id":"%s","credits":10}`, s.buyerID))},
		}
		for _, tc := range cases {
			w := s.deliver(tc.body, s.sign(tc.body))
			require.Equal(t, http.StatusBadRequest, w.Code, tc.name)
		}
	})
}

func (s *webhookSuite) TestPurchaseNotification() {
	s.Run("入金完了通知が届く", func() {
		t := s.T()

		body := s.eventBody("evt_600", s.buyerID, 10)
		w := s.deliver(body, s.sign(body))
		require.Equal(t, http.StatusOK, w.Code)

		// 通知の書き込みは通知キュー経由で非同期
		deadline := time.Now().Add(10 * time.Second)
		for {
			wList := helper.PerformRequest(t, s.Router, http.MethodGet, "/api/notifications", nil, s.buyerToken)
			require.Equal(t, http.StatusOK, wList.Code)
			var items []struct {
				Type string          `json:"type"`
				Data json.RawMessage `json:"data"`
			}
			require.NoError(t, helper.DecodeResponseBody(t, wList.Body, &items))

			found := false
			for _, item := range items {
				if item.Type == "credits_purchased" {
					require.Contains(t, string(item.Data), `"credits":10`)
					found = true
				}
			}
			if found {
				break
			}
			require.False(t, time.Now().After(deadline), "credits_purchased notification never arrived")
			time.Sleep(50 * time.Millisecond)
		}
	})
}

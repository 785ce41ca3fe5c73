//go:build unit

package api_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"classcribe/internal/clients/payment"
	"classcribe/internal/handler/api"
	"classcribe/internal/pkg/errs"
	"classcribe/internal/usecase/commands"
	commandsmock "classcribe/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type WebhookHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockPaymentCommands
	handler      *api.WebhookHandler
}

func (s *WebhookHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockPaymentCommands(s.mockCtrl)
	s.handler = api.NewWebhookHandler(s.mockCommands)

	s.router.POST("/webhooks/payment", s.handler.HandlePaymentEvent)
}

func (s *WebhookHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestWebhookHandlerSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlerTestSuite))
}

func (s *WebhookHandlerTestSuite) deliver(body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewBufferString(body))
	if signature != "" {
		req.Header.Set(payment.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *WebhookHandlerTestSuite) TestHandlePaymentEvent() {
	body := `{"id":"evt_1","user_id":"u","credits":10}`

	tests := []struct {
		name         string
		signature    string
		setupMock    func()
		expectCode   int
		expectInBody string
	}{
		{
			name:      "入金反映の成功",
			signature: "sig",
			setupMock: func() {
				s.mockCommands.EXPECT().
					Reconcile(gomock.Any(), []byte(body), "sig").
					Return(&commands.ReconcileResult{Outcome: commands.OutcomeCredited, Balance: 10}, nil)
			},
			expectCode:   http.StatusOK,
			expectInBody: "credited",
		},
		{
			name:      "再配送は既処理として応答",
			signature: "sig",
			setupMock: func() {
				s.mockCommands.EXPECT().
					Reconcile(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(&commands.ReconcileResult{Outcome: commands.OutcomeAlreadyProcessed, Balance: 10}, nil)
			},
			expectCode:   http.StatusOK,
			expectInBody: "already_processed",
		},
		{
			name:       "署名ヘッダーなしは即時拒否",
			signature:  "",
			setupMock:  func() {},
			expectCode: http.StatusBadRequest,
		},
		{
			name:      "署名不一致は400",
			signature: "bad-sig",
			setupMock: func() {
				s.mockCommands.EXPECT().
					Reconcile(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errs.ErrInvalidSignature)
			},
			expectCode: http.StatusBadRequest,
		},
		{
			name:      "不正なイベントは400",
			signature: "sig",
			setupMock: func() {
				s.mockCommands.EXPECT().
					Reconcile(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errs.ErrMalformedEvent)
			},
			expectCode: http.StatusBadRequest,
		},
		{
			name:      "未知のユーザーはACKして無視",
			signature: "sig",
			setupMock: func() {
				s.mockCommands.EXPECT().
					Reconcile(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errs.ErrUnknownPayer)
			},
			expectCode:   http.StatusOK,
			expectInBody: "ignored",
		},
		{
			name:      "一時的な失敗は500でプロバイダの再送に委ねる",
			signature: "sig",
			setupMock: func() {
				s.mockCommands.EXPECT().
					Reconcile(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errs.New("connection refused"))
			},
			expectCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			tt.setupMock()

			w := s.deliver(body, tt.signature)
			s.Equal(tt.expectCode, w.Code, w.Body.String())
			if tt.expectInBody != "" {
				s.Contains(w.Body.String(), tt.expectInBody)
			}
		})
	}
}

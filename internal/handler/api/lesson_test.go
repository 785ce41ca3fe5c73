//go:build unit

package api_test

import (
	"net/http"
	"testing"

	"classcribe/internal/domain/user"
	"classcribe/internal/handler/api"
	"classcribe/internal/pkg/errs"
	"classcribe/internal/usecase/commands"
	"classcribe/internal/usecase/queries"
	"classcribe/tests/common/httptest"
	commandsmock "classcribe/tests/mock/commands"
	queriesmock "classcribe/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type LessonHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockLessonCommands
	mockQueries  *queriesmock.MockLessonQueries
	handler      *api.LessonHandler
	actorID      uuid.UUID
}

func (s *LessonHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.actorID = uuid.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockLessonCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockLessonQueries(s.mockCtrl)
	s.handler = api.NewLessonHandler(s.mockCommands, s.mockQueries)

	// 認証ミドルウェア相当のコンテキストを注入
	s.router.Use(func(c *gin.Context) {
		c.Set("user_id", s.actorID)
		c.Set("user_role", user.RoleTeacher)
	})
	s.router.POST("/lessons", s.handler.Create)
	s.router.GET("/lessons/:id", s.handler.Get)
	s.router.POST("/lessons/:id/analyze", s.handler.Analyze)
	s.router.POST("/lessons/:id/reprocess", s.handler.Reprocess)
	s.router.DELETE("/lessons/:id", s.handler.Delete)
}

func (s *LessonHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestLessonHandlerSuite(t *testing.T) {
	suite.Run(t, new(LessonHandlerTestSuite))
}

func (s *LessonHandlerTestSuite) TestCreate() {
	reqBody := map[string]any{
		"title":       "分数の割り算",
		"subject":     "math",
		"grade_level": "5th",
		"media_type":  "audio",
	}

	s.Run("正常な作成", func() {
		view := &queries.LessonView{ID: uuid.New(), UserID: s.actorID, Title: "分数の割り算", Status: "pending"}
		s.mockCommands.EXPECT().
			Create(gomock.Any(), s.actorID, gomock.Nil(), gomock.Any()).
			Return(&commands.CreateLessonResult{Lesson: view, UploadURL: "https://storage.example/upload"}, nil)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/lessons", reqBody, "")
		s.Equal(http.StatusCreated, w.Code, w.Body.String())
		s.Contains(w.Body.String(), "uploadUrl")
	})

	s.Run("ドメイン検証エラーは400", func() {
		s.mockCommands.EXPECT().
			Create(gomock.Any(), s.actorID, gomock.Nil(), gomock.Any()).
			Return(nil, errs.Mark(errs.New("bad title"), errs.ErrDomainValidation))

		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/lessons", reqBody, "")
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("必須フィールド欠落は400", func() {
		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/lessons",
			map[string]any{"title": "t"}, "")
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *LessonHandlerTestSuite) TestGet() {
	lessonID := uuid.New()

	s.Run("取得成功", func() {
		view := &queries.LessonView{ID: lessonID, UserID: s.actorID, Title: "t", Status: "completed"}
		s.mockQueries.EXPECT().
			GetByID(gomock.Any(), s.actorID, false, lessonID).
			Return(view, nil)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/lessons/"+lessonID.String(), nil, "")
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), lessonID.String())
	})

	s.Run("他人のレッスンは403", func() {
		s.mockQueries.EXPECT().
			GetByID(gomock.Any(), s.actorID, false, lessonID).
			Return(nil, errs.ErrNotLessonOwner)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/lessons/"+lessonID.String(), nil, "")
		s.Equal(http.StatusForbidden, w.Code)
	})

	s.Run("存在しないレッスンは404", func() {
		s.mockQueries.EXPECT().
			GetByID(gomock.Any(), s.actorID, false, lessonID).
			Return(nil, errs.ErrLessonNotFound)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/lessons/"+lessonID.String(), nil, "")
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("不正なIDは400", func() {
		w := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/lessons/not-a-uuid", nil, "")
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *LessonHandlerTestSuite) TestAnalyze() {
	lessonID := uuid.New()
	url := "/lessons/" + lessonID.String() + "/analyze"

	s.Run("受理で202とランIDを返す", func() {
		runID := uuid.New()
		s.mockCommands.EXPECT().
			RequestAnalysis(gomock.Any(), s.actorID, lessonID).
			Return(&commands.AnalysisResult{RunID: runID, RemainingCredits: 2}, nil)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")
		s.Equal(http.StatusAccepted, w.Code, w.Body.String())
		s.Contains(w.Body.String(), runID.String())
	})

	// コマンド層のエラーとステータスコードの対応
	tests := []struct {
		name       string
		err        error
		expectCode int
	}{
		{name: "レッスンなしは404", err: errs.ErrLessonNotFound, expectCode: http.StatusNotFound},
		{name: "所有者以外は403", err: errs.ErrNotLessonOwner, expectCode: http.StatusForbidden},
		{name: "処理中レッスンは409", err: errs.ErrLessonNotReady, expectCode: http.StatusConflict},
		{name: "残高不足は402", err: errs.ErrInsufficientCredits, expectCode: http.StatusPaymentRequired},
		{name: "キュー飽和は503", err: commands.ErrPipelineBusy, expectCode: http.StatusServiceUnavailable},
		{name: "その他のエラーは500", err: errs.New("boom"), expectCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.mockCommands.EXPECT().
				RequestAnalysis(gomock.Any(), s.actorID, lessonID).
				Return(nil, tt.err)

			w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")
			s.Equal(tt.expectCode, w.Code, w.Body.String())
		})
	}
}

func (s *LessonHandlerTestSuite) TestReprocess() {
	lessonID := uuid.New()
	url := "/lessons/" + lessonID.String() + "/reprocess"

	s.Run("受理で202", func() {
		s.mockCommands.EXPECT().
			Reprocess(gomock.Any(), s.actorID, lessonID).
			Return(&commands.AnalysisResult{RunID: uuid.New(), RemainingCredits: 1}, nil)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")
		s.Equal(http.StatusAccepted, w.Code)
	})

	s.Run("非終端レッスンは409", func() {
		s.mockCommands.EXPECT().
			Reprocess(gomock.Any(), s.actorID, lessonID).
			Return(nil, errs.ErrLessonNotReady)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "")
		s.Equal(http.StatusConflict, w.Code)
	})
}

func (s *LessonHandlerTestSuite) TestDelete() {
	lessonID := uuid.New()
	url := "/lessons/" + lessonID.String()

	s.Run("削除成功は204", func() {
		s.mockCommands.EXPECT().
			Delete(gomock.Any(), s.actorID, lessonID, false).
			Return(nil)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "")
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("存在しないレッスンは404", func() {
		s.mockCommands.EXPECT().
			Delete(gomock.Any(), s.actorID, lessonID, false).
			Return(errs.ErrLessonNotFound)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "")
		s.Equal(http.StatusNotFound, w.Code)
	})
}

//go:build e2e

package lesson_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"classcribe/internal/domain/user"
	"classcribe/internal/handler/dto/request"
	"classcribe/tests/common/authtest"
	"classcribe/tests/common/dbtest"
	"classcribe/tests/common/helper"
	"classcribe/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	lessonsURL       = "/api/lessons"
	balanceURL       = "/api/credits/balance"
	transactionsURL  = "/api/credits/transactions"
	notificationsURL = "/api/notifications"

	completionWait = 15 * time.Second
)

type lessonView struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Status             string          `json:"status"`
	MediaURL           string          `json:"mediaUrl"`
	TranscriptText     *string         `json:"transcriptText"`
	TranscriptLanguage *string         `json:"transcriptLanguage"`
	AnalysisResult     json.RawMessage `json:"analysisResult"`
	AnalysisModel      *string         `json:"analysisModel"`
	FailureReason      string          `json:"failureReason"`
}

type createLessonResponse struct {
	Lesson    lessonView `json:"lesson"`
	UploadURL string     `json:"uploadUrl"`
}

type analysisRequestedResponse struct {
	RunID            string `json:"runId"`
	RemainingCredits int32  `json:"remainingCredits"`
}

type lessonSuite struct {
	e2e.SharedSuite
	ownerToken string
	otherToken string
	adminToken string
	ownerID    uuid.UUID
}

func TestLessonSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(lessonSuite))
}

func (s *lessonSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()

	s.ownerID = dbtest.CreateTestUser(s.T(), s.DB, "owner@example.com", string(user.RoleTeacher))
	dbtest.CreateTestUser(s.T(), s.DB, "other@example.com", string(user.RoleTeacher))
	dbtest.CreateTestUser(s.T(), s.DB, "admin@example.com", string(user.RoleAdmin))

	s.ownerToken = authtest.LoginUser(s.T(), s.Router, "owner@example.com", "password123")
	s.otherToken = authtest.LoginUser(s.T(), s.Router, "other@example.com", "password123")
	s.adminToken = authtest.LoginUser(s.T(), s.Router, "admin@example.com", "password123")
}

func (s *lessonSuite) createLesson(token string) createLessonResponse {
	t := s.T()
	reqBody := request.CreateLessonRequest{
		Title:      "分数の割り算",
		Subject:    "math",
		GradeLevel: "5th",
		MediaType:  "audio",
	}
	w := helper.PerformRequest(t, s.Router, http.MethodPost, lessonsURL, reqBody, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res createLessonResponse
	require.NoError(t, helper.DecodeResponseBody(t, w.Body, &res))
	return res
}

func (s *lessonSuite) getLesson(token, lessonID string) (lessonView, int) {
	t := s.T()
	w := helper.PerformRequest(t, s.Router, http.MethodGet, lessonsURL+"/"+lessonID, nil, token)
	var view lessonView
	if w.Code == http.StatusOK {
		require.NoError(t, helper.DecodeResponseBody(t, w.Body, &view))
	}
	return view, w.Code
}

// パイプラインが終端状態に達するまでポーリングする
func (s *lessonSuite) waitForStatus(token, lessonID, want string) lessonView {
	t := s.T()
	deadline := time.Now().Add(completionWait)
	for {
		view, code := s.getLesson(token, lessonID)
		require.Equal(t, http.StatusOK, code)
		if view.Status == want {
			return view
		}
		require.False(t, time.Now().After(deadline),
			"lesson did not reach %s in time (current: %s, failure: %s)", want, view.Status, view.FailureReason)
		time.Sleep(50 * time.Millisecond)
	}
}

func (s *lessonSuite) currentBalance(token string) int32 {
	t := s.T()
	w := helper.PerformRequest(t, s.Router, http.MethodGet, balanceURL, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Balance int32 `json:"balance"`
	}
	require.NoError(t, helper.DecodeResponseBody(t, w.Body, &res))
	return res.Balance
}

func (s *lessonSuite) TestCreateLesson() {
	s.Run("正常な作成", func() {
		t := s.T()

		res := s.createLesson(s.ownerToken)
		require.Equal(t, "分数の割り算", res.Lesson.Title)
		require.Equal(t, "pending", res.Lesson.Status)
		require.NotEmpty(t, res.Lesson.MediaURL, "メディアURLが設定されていない")
		require.True(t, strings.HasPrefix(res.UploadURL, "https://storage.test/upload/lessons/"),
			"署名付きアップロードURLが不正: %s", res.UploadURL)
		require.Contains(t, res.UploadURL, "recording.mp3")
	})

	s.Run("タイトル空は拒否", func() {
		t := s.T()

		reqBody := request.CreateLessonRequest{Title: "", MediaType: "audio"}
		w := helper.PerformRequest(t, s.Router, http.MethodPost, lessonsURL, reqBody, s.ownerToken)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	s.Run("不正なメディア種別は拒否", func() {
		t := s.T()

		reqBody := request.CreateLessonRequest{Title: "t", MediaType: "image"}
		w := helper.PerformRequest(t, s.Router, http.MethodPost, lessonsURL, reqBody, s.ownerToken)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func (s *lessonSuite) TestAnalyze() {
	s.Run("クレジット不足は402", func() {
		t := s.T()

		res := s.createLesson(s.ownerToken)
		w := helper.PerformRequest(t, s.Router, http.MethodPost,
			lessonsURL+"/"+res.Lesson.ID+"/analyze", nil, s.ownerToken)
		require.Equal(t, http.StatusPaymentRequired, w.Code, w.Body.String())

		// 失敗した要求は状態を変えない
		view, code := s.getLesson(s.ownerToken, res.Lesson.ID)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "pending", view.Status)
	})

	s.Run("正常な解析フロー", func() {
		t := s.T()

		dbtest.SetCreditBalance(t, s.DB, s.ownerID, 3)
		res := s.createLesson(s.ownerToken)

		w := helper.PerformRequest(t, s.Router, http.MethodPost,
			lessonsURL+"/"+res.Lesson.ID+"/analyze", nil, s.ownerToken)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

		var accepted analysisRequestedResponse
		require.NoError(t, helper.DecodeResponseBody(t, w.Body, &accepted))
		require.NotEmpty(t, accepted.RunID)
		require.Equal(t, int32(2), accepted.RemainingCredits, "解析費用が引き落とされていない")

		view := s.waitForStatus(s.ownerToken, res.Lesson.ID, "completed")
		require.NotNil(t, view.TranscriptText)
		require.Equal(t, "Today we covered long division with remainders.", *view.TranscriptText)
		require.NotNil(t, view.TranscriptLanguage)
		require.Equal(t, "en", *view.TranscriptLanguage)
		require.Contains(t, string(view.AnalysisResult), "summary")
		require.NotNil(t, view.AnalysisModel)
		require.Equal(t, "stub-model", *view.AnalysisModel)

		// 台帳にデビットが記録される
		wTx := helper.PerformRequest(t, s.Router, http.MethodGet, transactionsURL, nil, s.ownerToken)
		require.Equal(t, http.StatusOK, wTx.Code)
		var txs []struct {
			Amount   int32   `json:"amount"`
			Reason   string  `json:"reason"`
			LessonID *string `json:"lessonId"`
		}
		require.NoError(t, helper.DecodeResponseBody(t, wTx.Body, &txs))
		require.Len(t, txs, 1)
		require.Equal(t, int32(-1), txs[0].Amount)
		require.Equal(t, "lesson_analysis", txs[0].Reason)
		require.NotNil(t, txs[0].LessonID)
		require.Equal(t, res.Lesson.ID, *txs[0].LessonID)

		require.Equal(t, int32(2), s.currentBalance(s.ownerToken))
	})

	s.Run("残高1で同時リクエストは片方だけ成功", func() {
		t := s.T()

		dbtest.SetCreditBalance(t, s.DB, s.ownerID, 1)
		first := s.createLesson(s.ownerToken)
		second := s.createLesson(s.ownerToken)

		codes := make(chan int, 2)
		var wg sync.WaitGroup
		for _, id := range []string{first.Lesson.ID, second.Lesson.ID} {
			wg.Add(1)
			go func(lessonID string) {
				defer wg.Done()
				w := helper.PerformRequest(t, s.Router, http.MethodPost,
					lessonsURL+"/"+lessonID+"/analyze", nil, s.ownerToken)
				codes <- w.Code
			}(id)
		}
		wg.Wait()
		close(codes)

		var accepted, rejected int
		for code := range codes {
			switch code {
			case http.StatusAccepted:
				accepted++
			case http.StatusPaymentRequired:
				rejected++
			default:
				t.Fatalf("unexpected status: %d", code)
			}
		}
		require.Equal(t, 1, accepted, "デビットは1件だけ成立するべき")
		require.Equal(t, 1, rejected)

		var debits int
		err := s.DB.QueryRow(t.Context(),
			"SELECT count(*) FROM credit_transactions WHERE user_id = $1 AND reason = 'lesson_analysis'",
			s.ownerID).Scan(&debits)
		require.NoError(t, err)
		require.Equal(t, 1, debits)
		require.Equal(t, int32(0), s.currentBalance(s.ownerToken))
	})

	s.Run("pending以外は409", func() {
		t := s.T()

		dbtest.SetCreditBalance(t, s.DB, s.ownerID, 3)
		res := s.createLesson(s.ownerToken)

		w := helper.PerformRequest(t, s.Router, http.MethodPost,
			lessonsURL+"/"+res.Lesson.ID+"/analyze", nil, s.ownerToken)
		require.Equal(t, http.StatusAccepted, w.Code)
		s.waitForStatus(s.ownerToken, res.Lesson.ID, "completed")

		w = helper.PerformRequest(t, s.Router, http.MethodPost,
			lessonsURL+"/"+res.Lesson.ID+"/analyze", nil, s.ownerToken)
		require.Equal(t, http.StatusConflict, w.Code, "完了済みレッスンの再解析はreprocessを使うべき")
	})

	s.Run("他人のレッスンは403", func() {
		t := s.T()

		res := s.createLesson(s.ownerToken)
		w := helper.PerformRequest(t, s.Router, http.MethodPost,
			lessonsURL+"/"+res.Lesson.ID+"/analyze", nil, s.otherToken)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	s.Run("存在しないレッスンは404", func() {
		t := s.T()

		w := helper.PerformRequest(t, s.Router, http.MethodPost,
			lessonsURL+"/"+uuid.NewString()+"/analyze", nil, s.ownerToken)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	s.Run("不正なIDは400", func() {
		t := s.T()

		w := helper.PerformRequest(t, s.Router, http.MethodPost,
			lessonsURL+"/not-a-uuid/analyze", nil, s.ownerToken)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func (s *lessonSuite) TestReprocess() {
	s.Run("完了済みレッスンの再処理", func() {
		t := s.T()

		dbtest.SetCreditBalance(t, s.DB, s.ownerID, 5)
		res := s.createLesson(s.ownerToken)

		w := helper.PerformRequest(t, s.Router, http.MethodPost,
			lessonsURL+"/"+res.Lesson.ID+"/analyze", nil, s.ownerToken)
		require.Equal(t, http.StatusAccepted, w.Code)
		var first analysisRequestedResponse
		require.NoError(t, helper.DecodeResponseBody(t, w.Body, &first))
		s.waitForStatus(s.ownerToken, res.Lesson.ID, "completed")

		w = helper.PerformRequest(t, s.Router, http.MethodPost,
			lessonsURL+"/"+res.Lesson.ID+"/reprocess", nil, s.ownerToken)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
		var second analysisRequestedResponse
		require.NoError(t, helper.DecodeResponseBody(t, w.Body, &second))
		require.NotEqual(t, first.RunID, second.RunID, "再処理で新しいランIDが払い出されていない")
		require.Equal(t, int32(3), second.RemainingCredits)

		s.waitForStatus(s.ownerToken, res.Lesson.ID, "completed")

		// 実行ごとに課金される
		var debits int
		err := s.DB.QueryRow(s.T().Context(),
			"SELECT count(*) FROM credit_transactions WHERE user_id = $1 AND reason = 'lesson_analysis'",
			s.ownerID).Scan(&debits)
		require.NoError(t, err)
		require.Equal(t, 2, debits)
	})

	s.Run("非終端レッスンは409", func() {
		t := s.T()

		dbtest.SetCreditBalance(t, s.DB, s.ownerID, 3)
		res := s.createLesson(s.ownerToken)

		w := helper.PerformRequest(t, s.Router, http.MethodPost,
			lessonsURL+"/"+res.Lesson.ID+"/reprocess", nil, s.ownerToken)
		require.Equal(t, http.StatusConflict, w.Code)
	})
}

func (s *lessonSuite) TestAnalysisNotification() {
	s.Run("解析完了通知と既読化", func() {
		t := s.T()

		dbtest.SetCreditBalance(t, s.DB, s.ownerID, 3)
		res := s.createLesson(s.ownerToken)

		w := helper.PerformRequest(t, s.Router, http.MethodPost,
			lessonsURL+"/"+res.Lesson.ID+"/analyze", nil, s.ownerToken)
		require.Equal(t, http.StatusAccepted, w.Code)
		s.waitForStatus(s.ownerToken, res.Lesson.ID, "completed")

		// 通知は別キュー経由で非同期に書かれる
		notificationID := s.waitForNotification("analysis_complete")

		w = helper.PerformRequest(t, s.Router, http.MethodPost,
			notificationsURL+"/"+notificationID+"/read", nil, s.ownerToken)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = helper.PerformRequest(t, s.Router, http.MethodGet,
			notificationsURL+"?unread_only=true", nil, s.ownerToken)
		require.Equal(t, http.StatusOK, w.Code)
		var unread []json.RawMessage
		require.NoError(t, helper.DecodeResponseBody(t, w.Body, &unread))
		require.Empty(t, unread, "既読化後も未読一覧に残っている")
	})

	s.Run("他人の通知は既読化できない", func() {
		t := s.T()

		dbtest.SetCreditBalance(t, s.DB, s.ownerID, 3)
		res := s.createLesson(s.ownerToken)
		w := helper.PerformRequest(t, s.Router, http.MethodPost,
			lessonsURL+"/"+res.Lesson.ID+"/analyze", nil, s.ownerToken)
		require.Equal(t, http.StatusAccepted, w.Code)
		s.waitForStatus(s.ownerToken, res.Lesson.ID, "completed")
		notificationID := s.waitForNotification("analysis_complete")

		w = helper.PerformRequest(t, s.Router, http.MethodPost,
			notificationsURL+"/"+notificationID+"/read", nil, s.otherToken)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func (s *lessonSuite) waitForNotification(kind string) string {
	t := s.T()
	deadline := time.Now().Add(completionWait)
	for {
		w := helper.PerformRequest(t, s.Router, http.MethodGet, notificationsURL, nil, s.ownerToken)
		require.Equal(t, http.StatusOK, w.Code)
		var items []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		}
		require.NoError(t, helper.DecodeResponseBody(t, w.Body, &items))
		for _, item := range items {
			if item.Type == kind {
				return item.ID
			}
		}
		require.False(t, time.Now().After(deadline), "%s notification never arrived", kind)
		time.Sleep(50 * time.Millisecond)
	}
}

func (s *lessonSuite) TestList() {
	s.Run("自分のレッスンのみ新しい順で返る", func() {
		t := s.T()

		first := s.createLesson(s.ownerToken)
		second := s.createLesson(s.ownerToken)
		s.createLesson(s.otherToken)

		w := helper.PerformRequest(t, s.Router, http.MethodGet, lessonsURL, nil, s.ownerToken)
		require.Equal(t, http.StatusOK, w.Code)
		var items []struct {
			ID string `json:"id"`
		}
		require.NoError(t, helper.DecodeResponseBody(t, w.Body, &items))
		require.Len(t, items, 2)
		require.Equal(t, second.Lesson.ID, items[0].ID)
		require.Equal(t, first.Lesson.ID, items[1].ID)
	})
}

func (s *lessonSuite) TestGetAndDelete() {
	s.Run("他人のレッスンは403", func() {
		t := s.T()

		res := s.createLesson(s.ownerToken)
		_, code := s.getLesson(s.otherToken, res.Lesson.ID)
		require.Equal(t, http.StatusForbidden, code)
	})

	s.Run("本人による削除", func() {
		t := s.T()

		res := s.createLesson(s.ownerToken)
		w := helper.PerformRequest(t, s.Router, http.MethodDelete,
			lessonsURL+"/"+res.Lesson.ID, nil, s.ownerToken)
		require.Equal(t, http.StatusNoContent, w.Code)

		_, code := s.getLesson(s.ownerToken, res.Lesson.ID)
		require.Equal(t, http.StatusNotFound, code)
	})

	s.Run("他人による削除は403", func() {
		t := s.T()

		res := s.createLesson(s.ownerToken)
		w := helper.PerformRequest(t, s.Router, http.MethodDelete,
			lessonsURL+"/"+res.Lesson.ID, nil, s.otherToken)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	s.Run("管理者は他人のレッスンを削除できる", func() {
		t := s.T()

		res := s.createLesson(s.ownerToken)
		w := helper.PerformRequest(t, s.Router, http.MethodDelete,
			lessonsURL+"/"+res.Lesson.ID, nil, s.adminToken)
		require.Equal(t, http.StatusNoContent, w.Code)
	})

	s.Run("レッスン削除で台帳は消えない", func() {
		t := s.T()

		dbtest.SetCreditBalance(t, s.DB, s.ownerID, 3)
		res := s.createLesson(s.ownerToken)
		w := helper.PerformRequest(t, s.Router, http.MethodPost,
			lessonsURL+"/"+res.Lesson.ID+"/analyze", nil, s.ownerToken)
		require.Equal(t, http.StatusAccepted, w.Code)
		s.waitForStatus(s.ownerToken, res.Lesson.ID, "completed")

		w = helper.PerformRequest(t, s.Router, http.MethodDelete,
			lessonsURL+"/"+res.Lesson.ID, nil, s.ownerToken)
		require.Equal(t, http.StatusNoContent, w.Code)

		var count int
		err := s.DB.QueryRow(s.T().Context(),
			"SELECT count(*) FROM credit_transactions WHERE user_id = $1 AND reason = 'lesson_analysis'",
			s.ownerID).Scan(&count)
		require.NoError(t, err)
		require.Equal(t, 1, count, "課金履歴はレッスン削除後も監査のため残るべき")
	})
}

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"classcribe/internal/clients"
	"classcribe/internal/clients/analysis"
	"classcribe/internal/clients/transcription"
	"classcribe/internal/domain/credit"
	"classcribe/internal/domain/lesson"
	"classcribe/internal/domain/notification"
	"classcribe/internal/infra"
	"classcribe/internal/pipeline/dispatch"
	"classcribe/internal/pipeline/queue"
	"classcribe/internal/pkg/config"
	"classcribe/internal/usecase/queries"
	"classcribe/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	QueueTranscription = "transcription"
	QueueAnalysis      = "analysis"
	QueueReports       = "reports"
	QueueNotifications = dispatch.QueueNotifications
	QueueDefault       = "default"

	KindTranscribe = "transcribe"
	KindAnalyze    = "analyze"
	KindReport     = "report"
)

type TranscriptionProvider interface {
	Transcribe(ctx context.Context, mediaURL, mediaType string) (*transcription.Result, error)
}

type AnalysisProvider interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

type ReportStore interface {
	Upload(ctx context.Context, objectName, contentType string, data []byte) error
}

type EventSink interface {
	PublishLessonEvent(ctx context.Context, userID, lessonID uuid.UUID, kind string, payload map[string]any)
	PublishUserEvent(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any)
}

type Notifier interface {
	Dispatch(ctx context.Context, userID uuid.UUID, kind notification.Type, title, message string, data map[string]any)
}

// runPayload identifies one processing run. The run id guards every step:
// a job whose run id no longer matches the row is stale and drops silently.
type runPayload struct {
	LessonID uuid.UUID `json:"lesson_id"`
	RunID    uuid.UUID `json:"run_id"`
}

// Orchestrator owns the pipeline's queue topology and the stage handlers
// that walk a lesson from uploading to completed.
type Orchestrator struct {
	uow         shared.UnitOfWork
	lessonViews queries.LessonViewRepo
	manager     *queue.Manager
	transcriber TranscriptionProvider
	analyzer    AnalysisProvider
	reports     ReportStore
	events      EventSink
	notifier    Notifier
	dispatcher  *dispatch.Dispatcher
	cfg         config.PipelineConfig
}

func NewOrchestrator(
	uow shared.UnitOfWork,
	lessonViews queries.LessonViewRepo,
	manager *queue.Manager,
	transcriber TranscriptionProvider,
	analyzer AnalysisProvider,
	reports ReportStore,
	events EventSink,
	notifier Notifier,
	dispatcher *dispatch.Dispatcher,
	cfg config.PipelineConfig,
) (*Orchestrator, error) {
	o := &Orchestrator{
		uow:         uow,
		lessonViews: lessonViews,
		manager:     manager,
		transcriber: transcriber,
		analyzer:    analyzer,
		reports:     reports,
		events:      events,
		notifier:    notifier,
		dispatcher:  dispatcher,
		cfg:         cfg,
	}
	if err := o.register(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) register() error {
	topology := []struct {
		name    string
		workers int
	}{
		{QueueTranscription, o.cfg.TranscriptionWorkers},
		{QueueAnalysis, o.cfg.AnalysisWorkers},
		{QueueReports, o.cfg.ReportWorkers},
		{QueueNotifications, o.cfg.NotificationWorkers},
		{QueueDefault, o.cfg.DefaultWorkers},
	}
	for _, q := range topology {
		if err := o.manager.RegisterQueue(q.name, q.workers); err != nil {
			return err
		}
	}

	if err := o.manager.RegisterHandler(KindTranscribe, QueueTranscription, o.handleTranscribe); err != nil {
		return err
	}
	if err := o.manager.RegisterHandler(KindAnalyze, QueueAnalysis, o.handleAnalyze); err != nil {
		return err
	}
	if err := o.manager.RegisterHandler(KindReport, QueueReports, o.handleReport); err != nil {
		return err
	}
	if err := o.manager.RegisterHandler(dispatch.KindEmail, QueueNotifications, o.dispatcher.HandleEmailJob); err != nil {
		return err
	}

	o.manager.OnExhausted(o.handleExhausted)
	return nil
}

// EnqueueTranscription satisfies the command layer's enqueuer port. The
// lesson id is the ordering key, so runs for one lesson never interleave.
func (o *Orchestrator) EnqueueTranscription(ctx context.Context, lessonID, runID uuid.UUID) error {
	job, err := queue.NewJob(KindTranscribe, lessonID.String(), runPayload{LessonID: lessonID, RunID: runID})
	if err != nil {
		return err
	}
	return o.manager.Enqueue(ctx, job)
}

func (o *Orchestrator) handleTranscribe(ctx context.Context, job queue.Job) error {
	var p runPayload
	if err := job.Decode(&p); err != nil {
		return queue.Permanent(err)
	}

	snap, err := o.liveSnapshot(ctx, p)
	if snap == nil {
		return err
	}

	switch snap.Status {
	case lesson.StatusUploading:
		if err := o.step(ctx, p, snap.UserID, lesson.StatusUploading, lesson.StatusTranscribing); err != nil {
			return err
		}
	case lesson.StatusTranscribing:
		// Resuming after a mid-stage retry; the row already advanced.
	default:
		return nil
	}

	result, err := o.transcriber.Transcribe(ctx, snap.MediaURL, string(snap.MediaType))
	if err != nil {
		if clients.IsRetryable(err) {
			return err
		}
		return queue.Permanent(err)
	}

	err = o.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Lessons().SaveTranscript(ctx, p.LessonID, lesson.Transcript{
			Text:       result.Text,
			Language:   result.Language,
			Confidence: result.Confidence,
		}); err != nil {
			return err
		}
		return tx.Lessons().UpdateStatus(ctx, p.LessonID, lesson.StatusTranscribing, lesson.StatusAnalyzing)
	})
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil
		}
		return err
	}

	o.events.PublishLessonEvent(ctx, snap.UserID, p.LessonID, "status_changed", map[string]any{
		"status": lesson.StatusAnalyzing.String(),
		"run_id": p.RunID,
	})

	next, err := queue.NewJob(KindAnalyze, p.LessonID.String(), p)
	if err != nil {
		return queue.Permanent(err)
	}
	// A full analysis queue is retryable backpressure, not a failure.
	return o.manager.Enqueue(ctx, next)
}

func (o *Orchestrator) handleAnalyze(ctx context.Context, job queue.Job) error {
	var p runPayload
	if err := job.Decode(&p); err != nil {
		return queue.Permanent(err)
	}

	snap, err := o.liveSnapshot(ctx, p)
	if snap == nil {
		return err
	}
	if snap.Status != lesson.StatusAnalyzing {
		return nil
	}

	view, err := o.lessonViews.FindByID(ctx, p.LessonID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil
		}
		return err
	}
	if view.TranscriptText == nil || *view.TranscriptText == "" {
		return queue.Permanent(fmt.Errorf("lesson %s reached analysis without a transcript", p.LessonID))
	}

	result, err := o.analyzer.Analyze(ctx, analysis.Request{
		Transcript: *view.TranscriptText,
		Subject:    view.Subject,
		GradeLevel: view.GradeLevel,
	})
	if err != nil {
		if clients.IsRetryable(err) {
			return err
		}
		return queue.Permanent(err)
	}

	err = o.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Lessons().SaveAnalysis(ctx, p.LessonID, lesson.Analysis{
			Result:           result.Result,
			Model:            result.Model,
			TokensUsed:       result.TokensUsed,
			ProcessingTimeMs: result.ProcessingTimeMs,
		}); err != nil {
			return err
		}
		return tx.Lessons().UpdateStatus(ctx, p.LessonID, lesson.StatusAnalyzing, lesson.StatusCompleted)
	})
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil
		}
		return err
	}

	o.events.PublishLessonEvent(ctx, snap.UserID, p.LessonID, "analysis_complete", map[string]any{
		"status": lesson.StatusCompleted.String(),
		"run_id": p.RunID,
		"model":  result.Model,
	})

	o.notifier.Dispatch(ctx, snap.UserID, notification.TypeAnalysisComplete,
		"Lesson analysis ready",
		fmt.Sprintf("Analysis for %q is ready to view.", snap.Title),
		map[string]any{"lesson_id": p.LessonID})

	if report, err := queue.NewJob(KindReport, p.LessonID.String(), p); err == nil {
		if enqErr := o.manager.Enqueue(ctx, report); enqErr != nil {
			slog.Warn("skipping report generation, queue unavailable",
				"lesson_id", p.LessonID, "error", enqErr.Error())
		}
	}
	return nil
}

// handleReport renders the shareable report artifact. Failures here never
// touch the lesson: the analysis stays completed either way.
func (o *Orchestrator) handleReport(ctx context.Context, job queue.Job) error {
	var p runPayload
	if err := job.Decode(&p); err != nil {
		return queue.Permanent(err)
	}

	view, err := o.lessonViews.FindByID(ctx, p.LessonID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil
		}
		return err
	}
	if len(view.AnalysisResult) == 0 {
		return queue.Permanent(fmt.Errorf("lesson %s has no analysis to report", p.LessonID))
	}

	doc, err := json.Marshal(map[string]any{
		"lesson_id":    view.ID,
		"title":        view.Title,
		"subject":      view.Subject,
		"grade_level":  view.GradeLevel,
		"analysis":     view.AnalysisResult,
		"model":        view.AnalysisModel,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return queue.Permanent(err)
	}

	objectName := fmt.Sprintf("reports/%s/report.json", p.LessonID)
	if err := o.reports.Upload(ctx, objectName, "application/json", doc); err != nil {
		return err
	}

	slog.Info("lesson report generated", "lesson_id", p.LessonID, "object", objectName)
	return nil
}

// handleExhausted is the terminal failure path for pipeline stages: mark
// the lesson failed, refund the fee once per run, tell the user.
func (o *Orchestrator) handleExhausted(ctx context.Context, job queue.Job, cause error) {
	if job.Kind != KindTranscribe && job.Kind != KindAnalyze {
		return
	}

	var p runPayload
	if err := job.Decode(&p); err != nil {
		slog.Error("cannot fail run with undecodable payload", "job_id", job.ID, "error", err.Error())
		return
	}

	snap, _ := o.liveSnapshot(ctx, p)
	if snap == nil || snap.Status.IsTerminal() {
		return
	}

	refundKey := fmt.Sprintf("refund_%s", p.RunID)
	lessonID := p.LessonID

	err := o.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Lessons().UpdateStatus(ctx, lessonID, snap.Status, lesson.StatusFailed); err != nil {
			return err
		}
		if err := tx.Lessons().SetFailureReason(ctx, lessonID, cause.Error()); err != nil {
			return err
		}
		_, err := tx.Ledger().Credit(ctx, snap.UserID, o.cfg.CreditsPerAnalysis, credit.ReasonRefund, &refundKey, nil, &lessonID)
		return err
	})
	if err != nil {
		// A duplicate refund key means another path already failed this run.
		if !infra.IsKind(err, infra.KindDuplicateKey) {
			slog.Error("failed to fail pipeline run",
				"lesson_id", lessonID, "run_id", p.RunID, "error", err.Error())
		}
		return
	}

	o.events.PublishLessonEvent(ctx, snap.UserID, lessonID, "status_changed", map[string]any{
		"status": lesson.StatusFailed.String(),
		"run_id": p.RunID,
		"reason": cause.Error(),
	})

	o.notifier.Dispatch(ctx, snap.UserID, notification.TypeAnalysisFailed,
		"Lesson analysis failed",
		fmt.Sprintf("Processing %q failed; your credit was refunded.", snap.Title),
		map[string]any{"lesson_id": lessonID})
}

// step advances the persisted state machine and announces the transition.
func (o *Orchestrator) step(ctx context.Context, p runPayload, userID uuid.UUID, from, to lesson.Status) error {
	err := o.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Lessons().UpdateStatus(ctx, p.LessonID, from, to)
	})
	if err != nil {
		if infra.IsKind(err, infra.KindPrecondition) || infra.IsKind(err, infra.KindNotFound) {
			return nil
		}
		return err
	}
	o.events.PublishLessonEvent(ctx, userID, p.LessonID, "status_changed", map[string]any{
		"status": to.String(),
		"run_id": p.RunID,
	})
	return nil
}

// liveSnapshot fetches the lesson and filters out runs that no longer own
// the row: deleted lessons and superseded run ids both come back nil.
func (o *Orchestrator) liveSnapshot(ctx context.Context, p runPayload) (*shared.LessonSnapshot, error) {
	snap, err := o.uow.CommandReads().LessonByID(ctx, p.LessonID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			slog.Info("dropping job for deleted lesson", "lesson_id", p.LessonID, "run_id", p.RunID)
			return nil, nil
		}
		return nil, err
	}
	if snap.RunID == nil || *snap.RunID != p.RunID {
		slog.Info("dropping job for superseded run", "lesson_id", p.LessonID, "run_id", p.RunID)
		return nil, nil
	}
	return snap, nil
}

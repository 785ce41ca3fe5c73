package commands

import (
	"context"
	"fmt"
	"log/slog"

	"classcribe/internal/domain/credit"
	"classcribe/internal/domain/lesson"
	reqdto "classcribe/internal/handler/dto/request"
	"classcribe/internal/infra"
	"classcribe/internal/pkg/config"
	"classcribe/internal/pkg/errs"
	"classcribe/internal/usecase/queries"
	"classcribe/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrPipelineBusy = errs.New("processing queue is saturated")
)

type CreateLessonResult struct {
	Lesson    *queries.LessonView
	UploadURL string
}

type AnalysisResult struct {
	RunID            uuid.UUID
	RemainingCredits int32
}

type LessonCommands interface {
	Create(ctx context.Context, userID uuid.UUID, institutionID *uuid.UUID, req reqdto.CreateLessonRequest) (*CreateLessonResult, error)
	// RequestAnalysis debits one analysis fee and starts the pipeline run.
	RequestAnalysis(ctx context.Context, actorID, lessonID uuid.UUID) (*AnalysisResult, error)
	// Reprocess resets a terminal lesson and immediately starts a new run.
	Reprocess(ctx context.Context, actorID, lessonID uuid.UUID) (*AnalysisResult, error)
	Delete(ctx context.Context, actorID, lessonID uuid.UUID, isAdmin bool) error
}

type lessonCommandsImpl struct {
	uow         shared.UnitOfWork
	lessonViews queries.LessonViewRepo
	media       MediaStore
	enqueuer    PipelineEnqueuer
	events      EventPublisher
	pipelineCfg config.PipelineConfig
}

func NewLessonCommands(
	uow shared.UnitOfWork,
	lessonViews queries.LessonViewRepo,
	media MediaStore,
	enqueuer PipelineEnqueuer,
	events EventPublisher,
	pipelineCfg config.PipelineConfig,
) LessonCommands {
	return &lessonCommandsImpl{
		uow:         uow,
		lessonViews: lessonViews,
		media:       media,
		enqueuer:    enqueuer,
		events:      events,
		pipelineCfg: pipelineCfg,
	}
}

func (c *lessonCommandsImpl) Create(ctx context.Context, userID uuid.UUID, institutionID *uuid.UUID, req reqdto.CreateLessonRequest) (*CreateLessonResult, error) {
	entity, err := req.ToDomain(userID, institutionID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	objectName := mediaObjectName(entity.ID(), entity.MediaType())
	uploadURL, err := c.media.SignedUploadURL(ctx, objectName, mediaContentType(entity.MediaType()))
	if err != nil {
		return nil, errs.Wrap(err, "failed to sign upload url")
	}
	entity.AttachMedia(c.media.ObjectURL(objectName))

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		_, createErr := tx.Lessons().Create(ctx, entity)
		return createErr
	})
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	view, err := c.lessonViews.FindByID(ctx, entity.ID())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	return &CreateLessonResult{Lesson: view, UploadURL: uploadURL}, nil
}

func (c *lessonCommandsImpl) RequestAnalysis(ctx context.Context, actorID, lessonID uuid.UUID) (*AnalysisResult, error) {
	var (
		runID   uuid.UUID
		balance int32
		ownerID uuid.UUID
	)

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		snap, err := c.loadOwnedLesson(ctx, tx, actorID, lessonID, false)
		if err != nil {
			return err
		}
		ownerID = snap.UserID

		if snap.Status != lesson.StatusPending || snap.MediaURL == "" {
			return errs.ErrLessonNotReady
		}

		runID, balance, err = c.startRun(ctx, tx, snap)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := c.dispatchRun(ctx, ownerID, lessonID, runID); err != nil {
		return nil, err
	}

	return &AnalysisResult{RunID: runID, RemainingCredits: balance}, nil
}

func (c *lessonCommandsImpl) Reprocess(ctx context.Context, actorID, lessonID uuid.UUID) (*AnalysisResult, error) {
	var (
		runID   uuid.UUID
		balance int32
		ownerID uuid.UUID
	)

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		snap, err := c.loadOwnedLesson(ctx, tx, actorID, lessonID, false)
		if err != nil {
			return err
		}
		ownerID = snap.UserID

		if !snap.Status.IsTerminal() {
			return errs.ErrLessonNotReady
		}
		if snap.MediaURL == "" {
			return errs.ErrLessonNotReady
		}

		if err := tx.Lessons().ResetForReprocess(ctx, lessonID, snap.Status); err != nil {
			if infra.IsKind(err, infra.KindPrecondition) {
				return errs.ErrLessonNotReady
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		snap.Status = lesson.StatusPending
		runID, balance, err = c.startRun(ctx, tx, snap)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := c.dispatchRun(ctx, ownerID, lessonID, runID); err != nil {
		return nil, err
	}

	return &AnalysisResult{RunID: runID, RemainingCredits: balance}, nil
}

func (c *lessonCommandsImpl) Delete(ctx context.Context, actorID, lessonID uuid.UUID, isAdmin bool) error {
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		snap, err := c.loadOwnedLesson(ctx, tx, actorID, lessonID, isAdmin)
		if err != nil {
			return err
		}
		// In-flight jobs discover the missing row and drop the run silently.
		if err := tx.Lessons().Delete(ctx, lessonID, snap.UserID); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.ErrLessonNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return nil
	})
}

func (c *lessonCommandsImpl) loadOwnedLesson(ctx context.Context, tx shared.Tx, actorID, lessonID uuid.UUID, isAdmin bool) (*shared.LessonSnapshot, error) {
	snap, err := tx.Reads().LessonByID(ctx, lessonID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrLessonNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if snap.UserID != actorID && !isAdmin {
		return nil, errs.ErrNotLessonOwner
	}
	return snap, nil
}

// startRun performs the transactional half of starting a pipeline run: debit
// the fee, stamp a fresh run id and step pending → uploading. Everything
// rolls back together.
func (c *lessonCommandsImpl) startRun(ctx context.Context, tx shared.Tx, snap *shared.LessonSnapshot) (uuid.UUID, int32, error) {
	lessonID := snap.ID

	balance, err := tx.Ledger().Debit(ctx, snap.UserID, c.pipelineCfg.CreditsPerAnalysis, credit.ReasonLessonAnalysis, &lessonID)
	if err != nil {
		if infra.IsKind(err, infra.KindPrecondition) {
			return uuid.Nil, 0, errs.ErrInsufficientCredits
		}
		return uuid.Nil, 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	runID := uuid.New()
	if err := tx.Lessons().BeginRun(ctx, lessonID, runID); err != nil {
		return uuid.Nil, 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if err := tx.Lessons().UpdateStatus(ctx, lessonID, lesson.StatusPending, lesson.StatusUploading); err != nil {
		if infra.IsKind(err, infra.KindPrecondition) {
			return uuid.Nil, 0, errs.ErrLessonNotReady
		}
		return uuid.Nil, 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	return runID, balance, nil
}

// dispatchRun hands the committed run to the transcription queue. A saturated
// queue rolls the lesson back to failed and refunds the fee so the user is
// never charged for work that was never scheduled.
func (c *lessonCommandsImpl) dispatchRun(ctx context.Context, userID, lessonID, runID uuid.UUID) error {
	if err := c.enqueuer.EnqueueTranscription(ctx, lessonID, runID); err != nil {
		c.compensateRun(ctx, userID, lessonID, runID, "processing queue saturated")
		return errs.Mark(err, ErrPipelineBusy)
	}

	c.events.PublishLessonEvent(ctx, userID, lessonID, "status_changed", map[string]any{
		"status": lesson.StatusUploading.String(),
		"run_id": runID.String(),
	})
	return nil
}

func (c *lessonCommandsImpl) compensateRun(ctx context.Context, userID, lessonID, runID uuid.UUID, reason string) {
	refundKey := fmt.Sprintf("refund_%s", runID)

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Lessons().UpdateStatus(ctx, lessonID, lesson.StatusUploading, lesson.StatusFailed); err != nil {
			return err
		}
		if err := tx.Lessons().SetFailureReason(ctx, lessonID, reason); err != nil {
			return err
		}
		_, err := tx.Ledger().Credit(ctx, userID, c.pipelineCfg.CreditsPerAnalysis, credit.ReasonRefund, &refundKey, nil, &lessonID)
		return err
	})
	if err != nil {
		slog.Error("failed to compensate rejected run",
			"lesson_id", lessonID, "run_id", runID, "error", err.Error())
	}
}

func mediaObjectName(lessonID uuid.UUID, mt lesson.MediaType) string {
	ext := "mp3"
	if mt == lesson.MediaVideo {
		ext = "mp4"
	}
	return fmt.Sprintf("lessons/%s/recording.%s", lessonID, ext)
}

func mediaContentType(mt lesson.MediaType) string {
	if mt == lesson.MediaVideo {
		return "video/mp4"
	}
	return "audio/mpeg"
}

package components

import (
	"context"

	"classcribe/internal/clients/analysis"
	"classcribe/internal/clients/email"
	"classcribe/internal/clients/payment"
	"classcribe/internal/clients/storage"
	"classcribe/internal/clients/transcription"
	"classcribe/internal/pipeline"
	"classcribe/internal/pipeline/dispatch"
	"classcribe/internal/pkg/config"
	"classcribe/internal/usecase/commands"

	"go.uber.org/fx"
)

var ClientsModule = fx.Module("clients",
	fx.Provide(
		fx.Annotate(
			NewTranscriptionClient,
			fx.As(new(pipeline.TranscriptionProvider)),
		),
		fx.Annotate(
			NewAnalysisClient,
			fx.As(new(pipeline.AnalysisProvider)),
		),
		fx.Annotate(
			NewStorageBucket,
			fx.As(new(commands.MediaStore)),
			fx.As(new(pipeline.ReportStore)),
		),
		fx.Annotate(
			NewEmailClient,
			fx.As(new(dispatch.EmailSender)),
		),
		fx.Annotate(
			NewWebhookVerifier,
			fx.As(new(commands.WebhookVerifier)),
		),
	),
)

func NewTranscriptionClient(cfg config.Config) *transcription.Client {
	return transcription.NewClient(transcription.Config{
		BaseURL: cfg.Provider.TranscriptionURL,
		APIKey:  cfg.Provider.TranscriptionAPIKey,
		Timeout: cfg.Provider.TranscriptionTimeout,
	})
}

func NewAnalysisClient(cfg config.Config) *analysis.Client {
	return analysis.NewClient(analysis.Config{
		BaseURL: cfg.Provider.AnalysisURL,
		APIKey:  cfg.Provider.AnalysisAPIKey,
		Model:   cfg.Provider.AnalysisModel,
		Timeout: cfg.Provider.AnalysisTimeout,
	})
}

func NewStorageBucket(lc fx.Lifecycle, cfg config.Config) (*storage.Bucket, error) {
	bucket, cleanup, err := storage.NewBucket(context.Background(), storage.Config{
		Bucket:    cfg.Storage.Bucket,
		URLExpiry: cfg.Storage.URLExpiry,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return bucket, nil
}

func NewEmailClient(cfg config.Config) *email.Client {
	return email.NewClient(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}

func NewWebhookVerifier(cfg config.Config) *payment.Verifier {
	return payment.NewVerifier(cfg.Payment.WebhookSecret)
}

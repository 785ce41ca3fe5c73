//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"classcribe/internal/clients/analysis"
	"classcribe/internal/clients/payment"
	"classcribe/internal/clients/transcription"
	"classcribe/internal/pipeline"
	"classcribe/internal/pipeline/dispatch"
	"classcribe/internal/pkg/config"
	"classcribe/internal/usecase/commands"

	"go.uber.org/fx"
)

// Provider, storage and SMTP stubs so the full pipeline runs in-process
// without external services.
var testClientsModule = fx.Module("testclients",
	fx.Provide(
		fx.Annotate(
			newStubTranscriber,
			fx.As(new(pipeline.TranscriptionProvider)),
		),
		fx.Annotate(
			newStubAnalyzer,
			fx.As(new(pipeline.AnalysisProvider)),
		),
		fx.Annotate(
			newMemoryStorage,
			fx.As(new(commands.MediaStore)),
			fx.As(new(pipeline.ReportStore)),
		),
		fx.Annotate(
			newNoopMailer,
			fx.As(new(dispatch.EmailSender)),
		),
		fx.Annotate(
			func(cfg config.Config) *payment.Verifier {
				return payment.NewVerifier(cfg.Payment.WebhookSecret)
			},
			fx.As(new(commands.WebhookVerifier)),
		),
	),
)

type stubTranscriber struct{}

func newStubTranscriber() *stubTranscriber { return &stubTranscriber{} }

func (s *stubTranscriber) Transcribe(_ context.Context, _, _ string) (*transcription.Result, error) {
	return &transcription.Result{
		Text:       "Today we covered long division with remainders.",
		Language:   "en",
		Confidence: 0.97,
	}, nil
}

type stubAnalyzer struct{}

func newStubAnalyzer() *stubAnalyzer { return &stubAnalyzer{} }

func (s *stubAnalyzer) Analyze(_ context.Context, _ analysis.Request) (*analysis.Result, error) {
	return &analysis.Result{
		Result:           json.RawMessage(`{"summary":"Long division lesson","strengths":["clear pacing"],"improvements":["more student talk time"]}`),
		Model:            "stub-model",
		TokensUsed:       128,
		ProcessingTimeMs: 5,
	}, nil
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) SignedUploadURL(_ context.Context, objectName, _ string) (string, error) {
	return "https://storage.test/upload/" + objectName, nil
}

func (m *memoryStorage) ObjectURL(objectName string) string {
	return fmt.Sprintf("https://storage.test/%s", objectName)
}

func (m *memoryStorage) Upload(_ context.Context, objectName, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = append([]byte(nil), data...)
	return nil
}

type noopMailer struct{}

func newNoopMailer() *noopMailer { return &noopMailer{} }

func (n *noopMailer) Send(_ context.Context, _, _, _ string) error { return nil }

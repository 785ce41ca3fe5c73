package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"classcribe/internal/pkg/errs"

	gcs "cloud.google.com/go/storage"
)

type Config struct {
	Bucket    string
	URLExpiry time.Duration
}

// Bucket wraps the GCS bucket holding lesson recordings and generated
// reports. Uploads from browsers go directly to signed URLs; the service
// itself only writes report artifacts.
type Bucket struct {
	cfg    Config
	client *gcs.Client
}

func NewBucket(ctx context.Context, cfg Config) (*Bucket, func(), error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to create storage client")
	}
	cleanup := func() { _ = client.Close() }
	return &Bucket{cfg: cfg, client: client}, cleanup, nil
}

func (b *Bucket) SignedUploadURL(_ context.Context, objectName, contentType string) (string, error) {
	url, err := b.client.Bucket(b.cfg.Bucket).SignedURL(objectName, &gcs.SignedURLOptions{
		Scheme:      gcs.SigningSchemeV4,
		Method:      http.MethodPut,
		Expires:     time.Now().Add(b.cfg.URLExpiry),
		ContentType: contentType,
	})
	if err != nil {
		return "", errs.Wrap(err, "failed to sign upload url")
	}
	return url, nil
}

func (b *Bucket) ObjectURL(objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.cfg.Bucket, objectName)
}

// Upload writes a service-generated artifact (lesson reports).
func (b *Bucket) Upload(ctx context.Context, objectName, contentType string, data []byte) error {
	w := b.client.Bucket(b.cfg.Bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return errs.Wrap(err, "failed to write storage object")
	}
	if err := w.Close(); err != nil {
		return errs.Wrap(err, "failed to finalize storage object")
	}
	return nil
}

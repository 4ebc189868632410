package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

// GCSStorage writes receipts to a Cloud Storage bucket. References have the
// form gs://bucket/object.
type GCSStorage struct {
	client *storage.Client
	bucket string
}

// NewGCSClient prefers explicit JSON credentials and falls back to ADC.
func NewGCSClient(ctx context.Context, credentialsJSON string) (*storage.Client, error) {
	if strings.TrimSpace(credentialsJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	return storage.NewClient(ctx)
}

func NewGCSStorage(client *storage.Client, bucket string) (*GCSStorage, error) {
	if client == nil {
		return nil, errors.New("gcs client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}
	return &GCSStorage{client: client, bucket: bucket}, nil
}

func (s *GCSStorage) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return gcsScheme + s.bucket + "/" + key, nil
}

func (s *GCSStorage) Get(ctx context.Context, ref string) ([]byte, error) {
	bucket, object, err := parseGCSRef(ref)
	if err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func parseGCSRef(ref string) (string, string, error) {
	rest, ok := strings.CutPrefix(ref, gcsScheme)
	if !ok {
		return "", "", fmt.Errorf("not a gcs reference: %q", ref)
	}
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("malformed gcs reference: %q", ref)
	}
	return bucket, object, nil
}

package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/decision-ease/internal/domain"
)

// objectBucket reads and writes whole objects. It exists so GCSStore can be
// exercised without a real bucket.
type objectBucket interface {
	ReadObject(ctx context.Context, name string) ([]byte, error)
	WriteObject(ctx context.Context, name string, data []byte) error
}

// GCSStore keeps the snapshot as a JSON object in a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket objectBucket
	object string
}

// OpenGCS creates a storage client using Application Default Credentials.
func OpenGCS(ctx context.Context, bucketName, objectName string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("OpenGCS: create storage client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: &gcsBucket{handle: client.Bucket(bucketName)},
		object: objectName,
	}, nil
}

// Load downloads and decodes the snapshot object.
func (g *GCSStore) Load(ctx context.Context) (*domain.State, error) {
	data, err := g.bucket.ReadObject(ctx, g.object)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GCSStore.Load: %w", err)
	}

	st, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("GCSStore.Load: %w", err)
	}
	return st, nil
}

// Save uploads the snapshot, replacing the previous object.
func (g *GCSStore) Save(ctx context.Context, st *domain.State) error {
	data, err := encode(st)
	if err != nil {
		return fmt.Errorf("GCSStore.Save: %w", err)
	}

	if err := g.bucket.WriteObject(ctx, g.object, data); err != nil {
		return fmt.Errorf("GCSStore.Save: %w", err)
	}
	return nil
}

// Close closes the storage client.
func (g *GCSStore) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

type gcsBucket struct {
	handle *storage.BucketHandle
}

func (b *gcsBucket) ReadObject(ctx context.Context, name string) ([]byte, error) {
	r, err := b.handle.Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	return data, nil
}

func (b *gcsBucket) WriteObject(ctx context.Context, name string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w := b.handle.Object(name).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write GCS object: %w", err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

var _ Store = (*GCSStore)(nil)

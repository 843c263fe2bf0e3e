package blob

import (
	"bytes"
	"context"
	"io"

	"moswords/config"
	"moswords/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

const contentType = "application/octet-stream"

// Minio keeps blobs in one bucket of an S3 compatible object store.
type Minio struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

// NewMinio connects and creates the bucket when it does not exist yet.
func NewMinio(ctx context.Context, cfg config.Minio, log *logger.Logger) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "blob.NewMinio.New: ")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "blob.NewMinio.BucketExists: ")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, "blob.NewMinio.MakeBucket: ")
		}
		log.Info("created bucket", "bucket", cfg.Bucket)
	}

	return &Minio{client: client, bucket: cfg.Bucket, logger: log.Named("blob")}, nil
}

func (m *Minio) Put(ctx context.Context, key string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return errors.Wrap(err, "blob.Put: ")
	}
	return nil
}

func (m *Minio) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "blob.Get: ")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "blob.Get.Read: ")
	}
	return data, nil
}

func (m *Minio) Delete(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return errors.Wrap(err, "blob.Delete: ")
	}
	return nil
}

package minio

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	cfg "github.com/feichai0017/hasty/config"
	"github.com/feichai0017/hasty/pkg/logger"
)

type MinioStorage struct {
	client     *minio.Client
	bucketName string
	logger     logger.Logger
}

// contentType 根据对象键推断内容类型
func contentType(key string) string {
	switch path.Ext(key) {
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Store 上传工作簿或报表结果
func (m *MinioStorage) Store(ctx context.Context, reader io.Reader, key string) (string, error) {
	size := int64(-1)
	if sized, ok := reader.(interface{ Size() int64 }); ok {
		size = sized.Size()
	}

	info, err := m.client.PutObject(ctx, m.bucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType(key),
	})
	if err != nil {
		m.logger.Error("Failed to store object",
			logger.String("bucket", m.bucketName),
			logger.String("key", key),
			logger.Error(err),
		)
		return "", fmt.Errorf("failed to store %s: %w", key, err)
	}

	m.logger.Debug("Stored object",
		logger.String("key", key),
		logger.Int64("size", info.Size),
	)
	return key, nil
}

// Get 读取对象；对象不存在时立即返回错误
func (m *MinioStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	// GetObject 是惰性的，Stat 才会暴露 NoSuchKey
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code != "NoSuchKey" {
			m.logger.Error("Failed to stat object",
				logger.String("bucket", m.bucketName),
				logger.String("key", key),
				logger.Error(err),
			)
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return obj, nil
}

// Delete 删除对象
func (m *MinioStorage) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// CleanupBefore 删除保留期之前的上传和结果
func (m *MinioStorage) CleanupBefore(ctx context.Context, threshold time.Time) error {
	deleted := 0
	for obj := range m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		if !obj.LastModified.Before(threshold) {
			continue
		}
		if err := m.Delete(ctx, obj.Key); err != nil {
			m.logger.Warn("Failed to delete expired object",
				logger.String("key", obj.Key),
				logger.Error(err),
			)
			continue
		}
		deleted++
	}

	m.logger.Info("Expired objects removed",
		logger.String("bucket", m.bucketName),
		logger.Int("deleted", deleted),
		logger.Time("threshold", threshold),
	)
	return nil
}

func NewMinioStorage(ctx context.Context, log logger.Logger) (*MinioStorage, error) {
	minioConfig := cfg.GetMinioConfig()
	client, err := minio.New(minioConfig.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioConfig.AccessKey, minioConfig.SecretKey, ""),
		Secure: minioConfig.UseSSL,
		Region: minioConfig.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, minioConfig.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, minioConfig.BucketName, minio.MakeBucketOptions{
			Region: minioConfig.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info("Created bucket", logger.String("bucket", minioConfig.BucketName))
	}

	return &MinioStorage{
		client:     client,
		bucketName: minioConfig.BucketName,
		logger:     log.Named("minio"),
	}, nil
}

func GetClient(log logger.Logger) (*MinioStorage, error) {
	return NewMinioStorage(context.Background(), log)
}

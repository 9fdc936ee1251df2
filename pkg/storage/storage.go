package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/feichai0017/hasty/pkg/logger"
	"github.com/feichai0017/hasty/pkg/storage/minio"
	"github.com/feichai0017/hasty/pkg/storage/s3"
)

// StorageType 定义存储类型
type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// Storage 接口定义
type Storage interface {
	// Store 存储对象并返回其键
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get 获取对象
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete 删除对象
	Delete(ctx context.Context, key string) error
	// CleanupBefore 清理过期对象
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// UploadKey 上传工作簿的键
func UploadKey(taskID string) string {
	return fmt.Sprintf("upload:%s.xlsx", taskID)
}

// ResultKey 报表工作簿的键
func ResultKey(taskID string) string {
	return fmt.Sprintf("result:%s.xlsx", taskID)
}

// ResultJSONKey JSON 格式报表结果的键
func ResultJSONKey(taskID string) string {
	return fmt.Sprintf("result:%s.json", taskID)
}

// NewStorage 创建存储实例的工厂方法
func NewStorage(storageType StorageType, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeS3:
		client, err := s3.GetClient(log)
		if err != nil {
			return nil, err
		}
		return client, nil
	case StorageTypeMinio:
		client, err := minio.GetClient(log)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	cfg "github.com/feichai0017/hasty/config"
	"github.com/feichai0017/hasty/pkg/logger"
)

type S3Storage struct {
	client     *s3.Client
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
func (s *S3Storage) Store(ctx context.Context, reader io.Reader, key string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType(key)),
	})
	if err != nil {
		s.logger.Error("Failed to store object",
			logger.String("bucket", s.bucketName),
			logger.String("key", key),
			logger.Error(err),
		)
		return "", fmt.Errorf("failed to store %s: %w", key, err)
	}

	return key, nil
}

// Get 读取对象
func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return result.Body, nil
}

// Delete 删除对象
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	return nil
}

// CleanupBefore 批量删除保留期之前的对象
func (s *S3Storage) CleanupBefore(ctx context.Context, threshold time.Time) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
	})

	deleted := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}

		var expired []types.ObjectIdentifier
		for _, obj := range page.Contents {
			if obj.LastModified != nil && obj.LastModified.Before(threshold) {
				expired = append(expired, types.ObjectIdentifier{Key: obj.Key})
			}
		}
		if len(expired) == 0 {
			continue
		}

		// 一页最多 1000 个键，正好是 DeleteObjects 的上限
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucketName),
			Delete: &types.Delete{Objects: expired, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("failed to delete expired objects: %w", err)
		}
		for _, e := range out.Errors {
			s.logger.Warn("Failed to delete expired object",
				logger.String("key", aws.ToString(e.Key)),
				logger.String("reason", aws.ToString(e.Message)),
			)
		}
		deleted += len(expired) - len(out.Errors)
	}

	s.logger.Info("Expired objects removed",
		logger.String("bucket", s.bucketName),
		logger.Int("deleted", deleted),
		logger.Time("threshold", threshold),
	)
	return nil
}

func NewS3Storage(ctx context.Context, log logger.Logger) (*S3Storage, error) {
	s3Config := cfg.GetS3Config()

	log.Info("S3 Configuration",
		logger.String("bucket", s3Config.BucketName),
		logger.String("region", s3Config.Region),
		logger.String("endpoint", s3Config.Endpoint),
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(s3Config.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s3Config.AccessKey,
			s3Config.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// S3 兼容服务使用自定义地址和路径风格
		if s3Config.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3Config.Endpoint)
			o.UsePathStyle = true
		}
	})

	// 验证 bucket 是否存在
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s3Config.BucketName),
	}); err != nil {
		return nil, fmt.Errorf("failed to verify bucket existence: %w", err)
	}

	return &S3Storage{
		client:     client,
		bucketName: s3Config.BucketName,
		logger:     log.Named("s3"),
	}, nil
}

func GetClient(log logger.Logger) (*S3Storage, error) {
	return NewS3Storage(context.Background(), log)
}

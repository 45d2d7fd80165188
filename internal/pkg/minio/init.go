package minio

import (
	"Alumnet/internal/api/config"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage 头像等用户文件的对象存储
type Storage struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

// Init 初始化 MinIO 客户端，存储桶不存在时自动创建
func Init(cfg config.MinIOConfig) (*Storage, error) {
	var endpoint string
	var useSSL bool
	if cfg.InternalEndpoint != "" {
		endpoint = cfg.InternalEndpoint
		useSSL = cfg.InternalUseSSL
	} else {
		endpoint = cfg.ExternalEndpoint
		useSSL = true
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if !exists {
		if err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		log.Info("MinIO bucket created", "bucket", cfg.Bucket)
	}

	publicEndpoint := cfg.ExternalEndpoint
	if publicEndpoint == "" {
		publicEndpoint = endpoint
	}

	return &Storage{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: publicEndpoint,
		useSSL:   cfg.ExternalEndpoint != "" || useSSL,
	}, nil
}

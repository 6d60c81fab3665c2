package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"quill/pkg/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

const (
	emptyAWSSessionToken         = ""
	errFailedCreateAWSSessionFmt = "failed to create AWS session: %w"
	errFailedPutObjectFmt        = "failed to put object: %w"
	errFailedDeleteObjectFmt     = "failed to delete object: %w"
)

// ObjectStore 媒体对象存储
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// S3Store S3兼容对象存储
type S3Store struct {
	svc           *s3.S3
	bucket        string
	publicBaseURL string
}

// NewS3Store 创建S3存储客户端
func NewS3Store(cfg config.StorageConfig) (*S3Store, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, emptyAWSSessionToken)
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf(errFailedCreateAWSSessionFmt, err)
	}

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		if cfg.Endpoint != "" {
			base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &S3Store{
		svc:           s3.New(sess),
		bucket:        cfg.Bucket,
		publicBaseURL: base,
	}, nil
}

// Put 上传对象
func (s *S3Store) Put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
		Body:          bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf(errFailedPutObjectFmt, err)
	}
	return nil
}

// Delete 删除对象
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf(errFailedDeleteObjectFmt, err)
	}
	return nil
}

// URL 对象的公开访问地址
func (s *S3Store) URL(key string) string {
	return s.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}

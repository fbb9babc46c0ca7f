// Package s3 keeps objects in an Amazon S3 bucket or an S3-compatible
// service such as MinIO.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/invoicer/logger"
	"github.com/kbukum/invoicer/storage"
)

func init() {
	storage.Register(storage.ProviderS3, func(ctx context.Context, cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		s, err := NewStorage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Debug("S3 storage opened", map[string]interface{}{"bucket": cfg.Bucket, "region": cfg.Region})
		return s, nil
	})
}

// Storage is a storage.Storage on one bucket.
type Storage struct {
	client *awss3.Client
	bucket *string
}

var (
	_ storage.Storage = (*Storage)(nil)
	_ storage.Pinger  = (*Storage)(nil)
)

// NewStorage loads AWS settings from the environment, overridden by the
// static keys and endpoint in cfg when present.
func NewStorage(ctx context.Context, cfg storage.Config) (*Storage, error) {
	load := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		load = append(load, awsconfig.WithCredentialsProvider(creds))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, load...)
	if err != nil {
		return nil, fmt.Errorf("storage: aws config: %w", err)
	}
	return NewFromClient(awss3.NewFromConfig(awsCfg, clientOptions(cfg)...), cfg.Bucket), nil
}

func NewFromClient(client *awss3.Client, bucket string) *Storage {
	return &Storage{client: client, bucket: aws.String(bucket)}
}

// clientOptions: a custom endpoint always uses path-style addressing,
// since most S3-compatible services do not serve virtual-host buckets.
func clientOptions(cfg storage.Config) []func(*awss3.Options) {
	if cfg.Endpoint == "" && !cfg.ForcePathStyle {
		return nil
	}
	return []func(*awss3.Options){func(o *awss3.Options) {
		o.UsePathStyle = true
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}
}

// wrap maps a missing key onto storage.ErrNotFound.
func wrap(op, key string, err error) error {
	if missing(err) {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return fmt.Errorf("storage: s3 %s %s: %w", op, key, err)
}

// missing covers GetObject's NoSuchKey and the bare 404 of HeadObject.
func missing(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}

func (s *Storage) Upload(ctx context.Context, key string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{Bucket: s.bucket, Key: aws.String(key), Body: r})
	if err != nil {
		return wrap("put", key, err)
	}
	return nil
}

func (s *Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{Bucket: s.bucket, Key: aws.String(key)})
	if err != nil {
		return nil, wrap("get", key, err)
	}
	return out.Body, nil
}

// Delete succeeds for missing keys; S3 itself reports success for them.
func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{Bucket: s.bucket, Key: aws.String(key)})
	if err != nil && !missing(err) {
		return wrap("delete", key, err)
	}
	return nil
}

func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{Bucket: s.bucket, Key: aws.String(key)})
	switch {
	case err == nil:
		return true, nil
	case missing(err):
		return false, nil
	default:
		return false, wrap("head", key, err)
	}
}

// Ping checks that the bucket exists and the credentials can reach it.
func (s *Storage) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: s.bucket}); err != nil {
		return fmt.Errorf("storage: s3 bucket %s: %w", aws.ToString(s.bucket), err)
	}
	return nil
}

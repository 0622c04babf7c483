package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/notevault/internal/common"
)

// s3API is the part of *s3.Client the repository needs.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3Client = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Config addresses an S3-compatible bucket (AWS or MinIO).
type S3Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
	Prefix       string
}

// S3Repository stores attachments as objects named Prefix+ref.
type S3Repository struct {
	client s3API
	bucket string
	prefix string
}

func NewS3Repository(ctx context.Context, c S3Config) (*S3Repository, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3Client(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Repository{client: client, bucket: c.Bucket, prefix: c.Prefix}, nil
}

func (r *S3Repository) key(ref string) *string {
	return aws.String(r.prefix + ref)
}

func (r *S3Repository) Store(ctx context.Context, content io.Reader, suggestedID string) (string, error) {
	ref := objectID(suggestedID)

	// The SDK needs a seekable body to sign the payload.
	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           r.key(ref),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
	}
	return ref, nil
}

func (r *S3Repository) Remove(ctx context.Context, ref string) (bool, error) {
	ok, err := r.Exists(ctx, ref)
	if err != nil || !ok {
		return false, err
	}

	_, err = r.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(r.bucket), Key: r.key(ref)})
	if err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
	}
	return true, nil
}

func (r *S3Repository) Exists(ctx context.Context, ref string) (bool, error) {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(r.bucket), Key: r.key(ref)})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
	}
	return true, nil
}

func (r *S3Repository) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(r.bucket), Key: r.key(ref)})
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorMediaTransfer, err)
	}
	return out.Body, nil
}

// isNotFound matches both the typed HeadObject/GetObject errors and the bare
// API codes some S3-compatible servers return.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

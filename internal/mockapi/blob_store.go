package mockapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BlobStore stores listing photos.
type BlobStore interface {
	Save(ctx context.Context, id, contentType string, content []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// LocalBlobStore implements BlobStore using the local filesystem.
type LocalBlobStore struct {
	BaseDir string
}

func NewLocalBlobStore(baseDir string) *LocalBlobStore {
	return &LocalBlobStore{BaseDir: baseDir}
}

func (s *LocalBlobStore) path(id string) string {
	return filepath.Join(s.BaseDir, "images", id+".bin")
}

func (s *LocalBlobStore) Save(_ context.Context, id, _ string, content []byte) error {
	p := s.path(id)
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return err
	}
	return os.WriteFile(p, content, 0600)
}

func (s *LocalBlobStore) Get(_ context.Context, id string) ([]byte, error) {
	return os.ReadFile(s.path(id))
}

func (s *LocalBlobStore) Delete(_ context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// S3ClientAPI is the subset of the S3 client the blob store uses.
type S3ClientAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3BlobStore implements BlobStore using AWS S3. Photos live under the
// "listings/" prefix.
type S3BlobStore struct {
	Client S3ClientAPI
	Bucket string
}

// NewS3BlobStore loads the default AWS configuration. region overrides the
// configured region when set.
func NewS3BlobStore(ctx context.Context, bucket, region string) (*S3BlobStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3BlobStore{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
	}, nil
}

func (s *S3BlobStore) key(id string) *string {
	return aws.String("listings/" + id)
}

func (s *S3BlobStore) Save(ctx context.Context, id, contentType string, content []byte) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           s.key(id),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	_, err := s.Client.PutObject(ctx, input)
	return err
}

func (s *S3BlobStore) Get(ctx context.Context, id string) ([]byte, error) {
	resp, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    s.key(id),
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return io.ReadAll(resp.Body)
}

func (s *S3BlobStore) Delete(ctx context.Context, id string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    s.key(id),
	})
	return err
}

package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage implements Storage over two S3-compatible buckets:
// one public, one private.
type S3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	cfg       Config
}

// New creates a new S3Storage with the given configuration.
func New(cfg Config) (*S3Storage, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)
		},
	}

	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	client := s3.New(s3.Options{}, opts...)
	presigner := s3.NewPresignClient(client)

	return &S3Storage{
		client:    client,
		presigner: presigner,
		cfg:       cfg,
	}, nil
}

// bucket returns the bucket name for the given visibility side.
func (s *S3Storage) bucket(public bool) string {
	if public {
		return s.cfg.PublicBucket
	}
	return s.cfg.PrivateBucket
}

// Put uploads data from a reader to the selected bucket.
func (s *S3Storage) Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*FileInfo, error) {
	o := &putOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.key == "" {
		return nil, ErrKeyRequired
	}
	if size == 0 {
		return nil, ErrEmptyFile
	}

	contentType := o.contentType
	body := r
	if contentType == "" {
		contentType, body = DetectReader(r)
	}

	bucket := s.bucket(o.public)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(o.key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, wrapS3Error(err, ErrUploadFailed)
	}

	return &FileInfo{
		Key:         o.key,
		Bucket:      bucket,
		ContentType: contentType,
		Size:        size,
		Public:      o.public,
	}, nil
}

// Get retrieves a blob from the selected bucket.
func (s *S3Storage) Get(ctx context.Context, key string, public bool) (io.ReadCloser, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket(public)),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrNotFound)
	}

	return output.Body, nil
}

// Delete removes a blob from the selected bucket.
func (s *S3Storage) Delete(ctx context.Context, key string, public bool) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket(public)),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapS3Error(err, ErrDeleteFailed)
	}

	return nil
}

// SignedURL generates a pre-signed GET URL, against the private bucket
// unless FromPublic is given.
// The expiry instant is captured before presigning, so the reported
// ExpiresAt is never later than the URL's actual validity.
func (s *S3Storage) SignedURL(ctx context.Context, key string, opts ...URLOption) (*SignedURL, error) {
	o := &urlOptions{
		ttl: DefaultSignedTTL,
	}
	for _, opt := range opts {
		opt(o)
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket(o.public)),
		Key:    aws.String(key),
	}

	if o.downloadName != "" {
		disposition := fmt.Sprintf("attachment; filename=%q", o.downloadName)
		input.ResponseContentDisposition = aws.String(disposition)
	}

	expiresAt := time.Now().Add(o.ttl)
	result, err := s.presigner.PresignGetObject(ctx, input, func(po *s3.PresignOptions) {
		po.Expires = o.ttl
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrPresignFailed)
	}

	return &SignedURL{URL: result.URL, ExpiresAt: expiresAt}, nil
}

// PublicURL returns the permanent URL for a blob in the public bucket.
func (s *S3Storage) PublicURL(key string) string {
	if s.cfg.PublicURL != "" {
		return strings.TrimSuffix(s.cfg.PublicURL, "/") + "/" + key
	}

	if s.cfg.Endpoint != "" {
		endpoint := strings.TrimSuffix(s.cfg.Endpoint, "/")
		if s.cfg.PathStyle {
			return fmt.Sprintf("%s/%s/%s", endpoint, s.cfg.PublicBucket, key)
		}
		return fmt.Sprintf("%s/%s", endpoint, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.PublicBucket, s.cfg.Region, key)
}

// Ensure S3Storage implements Storage.
var _ Storage = (*S3Storage)(nil)

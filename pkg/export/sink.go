package export

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob" // gs:// buckets

	"github.com/df07/go-rtrace/pkg/core"
)

// Sink stores rendered images under a key
type Sink interface {
	Write(ctx context.Context, key string, data []byte, contentType string) error
	// Location describes where key is stored, for logging
	Location(key string) string
	Close() error
}

// S3Options configures s3:// destinations. Empty fields fall back to the AWS defaults.
type S3Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// OpenSink opens an output destination:
//   - a plain directory path, created if missing
//   - a blob URL such as file:///tmp/out or gs://bucket/prefix
//   - s3://bucket/prefix
func OpenSink(ctx context.Context, target string, s3opts S3Options, logger *slog.Logger) (Sink, error) {
	logger = core.LoggerOrDefault(logger)
	if target == "" {
		return nil, errors.New("empty output destination")
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 { // Windows drive letters parse as schemes
		bucket, err := fileblob.OpenBucket(target, &fileblob.Options{CreateDir: true})
		if err != nil {
			return nil, errors.Wrapf(err, "opening output directory %s", target)
		}
		logger.Debug("output sink opened", "kind", "dir", "target", target)
		return &BlobSink{bucket: bucket, url: target}, nil
	}

	if u.Scheme == "s3" {
		sink, err := NewS3Sink(u.Host, strings.TrimPrefix(u.Path, "/"), s3opts)
		if err != nil {
			return nil, err
		}
		logger.Debug("output sink opened", "kind", "s3", "target", target)
		return sink, nil
	}

	bucket, err := blob.OpenBucket(ctx, target)
	if err != nil {
		return nil, errors.Wrapf(err, "opening output bucket %s", target)
	}
	logger.Debug("output sink opened", "kind", u.Scheme, "target", target)
	return &BlobSink{bucket: bucket, url: target}, nil
}

// BlobSink writes to a gocloud blob bucket
type BlobSink struct {
	bucket *blob.Bucket
	url    string
}

// NewBlobSink wraps an open bucket
func NewBlobSink(bucket *blob.Bucket, url string) *BlobSink {
	return &BlobSink{bucket: bucket, url: url}
}

func (s *BlobSink) Write(ctx context.Context, key string, data []byte, contentType string) error {
	err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: contentType})
	return errors.Wrapf(err, "writing %s", s.Location(key))
}

func (s *BlobSink) Location(key string) string {
	return strings.TrimSuffix(s.url, "/") + "/" + key
}

func (s *BlobSink) Close() error {
	return s.bucket.Close()
}

// S3Sink uploads objects to an S3 compatible bucket
type S3Sink struct {
	client *s3.S3
	bucket string
	prefix string
}

// NewS3Sink creates a sink writing to bucket under prefix
func NewS3Sink(bucket, prefix string, opts S3Options) (*S3Sink, error) {
	if bucket == "" {
		return nil, errors.New("s3 destination needs a bucket")
	}

	config := &aws.Config{}
	if opts.Region != "" {
		config.Region = aws.String(opts.Region)
	}
	if opts.Endpoint != "" {
		config.Endpoint = aws.String(opts.Endpoint)
		config.S3ForcePathStyle = aws.Bool(true)
	}
	if opts.AccessKey != "" {
		config.Credentials = credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, "")
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, errors.Wrap(err, "creating s3 session")
	}
	return &S3Sink{client: s3.New(sess), bucket: bucket, prefix: prefix}, nil
}

func (s *S3Sink) Write(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	return errors.Wrapf(err, "uploading %s", s.Location(key))
}

func (s *S3Sink) Location(key string) string {
	return "s3://" + s.bucket + "/" + s.key(key)
}

func (s *S3Sink) Close() error { return nil }

func (s *S3Sink) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Provider streams objects to an S3 compatible bucket.
// Keys may be plain object keys or s3://bucket/key URLs; the URL bucket wins.
type S3Provider struct {
	client   *s3.Client
	bucket   string
	partSize int64
}

func NewS3Provider(client *s3.Client, bucket string) *S3Provider {
	return &S3Provider{
		client:   client,
		bucket:   bucket,
		partSize: 10 * 1024 * 1024, // 10MB chunks
	}
}

// NewS3Client builds a client from static settings. Empty credentials fall
// back to anonymous access, which is only useful against local test servers.
func NewS3Client(region, endpoint string, pathStyle bool, accessKey, secretKey string) *s3.Client {
	return s3.New(s3.Options{
		Region: region,
		BaseEndpoint: func() *string {
			if endpoint == "" {
				return nil
			}
			return aws.String(endpoint)
		}(),
		UsePathStyle: pathStyle,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     accessKey,
				SecretAccessKey: secretKey,
				Source:          "sheetstream",
			}, nil
		})),
	})
}

// splitS3URL returns bucket and key from s3://bucket/key. Plain keys return
// an empty bucket.
func splitS3URL(key string) (bucket, object string) {
	rest, ok := strings.CutPrefix(key, "s3://")
	if !ok {
		return "", strings.TrimPrefix(key, "/")
	}
	bucket, object, _ = strings.Cut(rest, "/")
	return bucket, object
}

func (p *S3Provider) target(key string) (string, string, error) {
	bucket, object := splitS3URL(key)
	if bucket == "" {
		bucket = p.bucket
	}
	if bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid s3 destination %q: bucket and key are required", key)
	}
	return bucket, object, nil
}

// Create starts the upload in the background. Data written to the returned
// writer is piped to a multipart upload; Close waits for the upload result.
func (p *S3Provider) Create(ctx context.Context, key, contentType string) (io.WriteCloser, error) {
	bucket, object, err := p.target(key)
	if err != nil {
		return nil, err
	}

	reader, writer := io.Pipe()
	done := make(chan error, 1)

	go func() {
		defer close(done)

		uploader := manager.NewUploader(p.client, func(u *manager.Uploader) {
			u.PartSize = p.partSize
			u.Concurrency = 5
		})

		input := &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(object),
			Body:   reader,
		}
		if contentType != "" {
			input.ContentType = aws.String(contentType)
		}

		slog.Info("Starting S3 upload", "bucket", bucket, "key", object)
		_, err := uploader.Upload(ctx, input)

		// unblock the producer if the upload stopped reading early
		_ = reader.CloseWithError(err)

		if err != nil {
			slog.Error("S3 upload failed", "key", object, "error", err)
			done <- fmt.Errorf("s3 upload failed: %w", err)
			return
		}
		slog.Info("S3 upload finished successfully", "key", object)
		done <- nil
	}()

	return &s3Writer{pw: writer, done: done}, nil
}

func (p *S3Provider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	bucket, object, err := p.target(key)
	if err != nil {
		return nil, err
	}
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (p *S3Provider) URL(key string) string {
	bucket, object, err := p.target(key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("s3://%s/%s", bucket, object)
}

type s3Writer struct {
	pw   *io.PipeWriter
	done <-chan error
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

// Close signals EOF to the uploader and waits for the upload to finish.
func (w *s3Writer) Close() error {
	_ = w.pw.Close()
	return <-w.done
}

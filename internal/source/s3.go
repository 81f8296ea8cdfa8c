package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures the S3 client used for s3:// sources.
type S3Options struct {
	Region       string
	Endpoint     string // custom endpoint (MinIO, Ceph)
	UsePathStyle bool
}

// S3Fetcher downloads s3://bucket/key objects with the SDK download
// manager. The client is built on first use so configurations that never
// touch S3 do not need AWS credentials.
type S3Fetcher struct {
	opts S3Options

	once    sync.Once
	client  manager.DownloadAPIClient
	initErr error
}

// NewS3Fetcher returns an S3Fetcher for opts.
func NewS3Fetcher(opts S3Options) *S3Fetcher {
	return &S3Fetcher{opts: opts}
}

// NewS3FetcherWithClient returns an S3Fetcher using an existing client.
func NewS3FetcherWithClient(client manager.DownloadAPIClient) *S3Fetcher {
	f := &S3Fetcher{client: client}
	f.once.Do(func() {})
	return f
}

func (f *S3Fetcher) s3Client(ctx context.Context) (manager.DownloadAPIClient, error) {
	f.once.Do(func() {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if f.opts.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(f.opts.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			f.initErr = fmt.Errorf("load AWS config: %w", err)
			return
		}
		f.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			if f.opts.Endpoint != "" {
				o.BaseEndpoint = aws.String(f.opts.Endpoint)
			}
			o.UsePathStyle = f.opts.UsePathStyle
		})
	})
	return f.client, f.initErr
}

// Fetch implements Fetcher. The download manager needs an io.WriterAt;
// other writers receive the object through an in-memory buffer.
func (f *S3Fetcher) Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	bucket, key, err := ParseS3URL(rawURL)
	if err != nil {
		return 0, err
	}

	client, err := f.s3Client(ctx)
	if err != nil {
		return 0, err
	}

	downloader := manager.NewDownloader(client)
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}

	if wa, ok := w.(io.WriterAt); ok {
		n, err := downloader.Download(ctx, wa, input)
		if err != nil {
			return n, downloadError(bucket, key, err)
		}
		return n, nil
	}

	buf := manager.NewWriteAtBuffer(nil)
	if _, err := downloader.Download(ctx, buf, input); err != nil {
		return 0, downloadError(bucket, key, err)
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func downloadError(bucket, key string, err error) error {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("s3://%s/%s: object not found", bucket, key)
	}
	return fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse %q: %w", rawURL, err)
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("%q is not an s3 URL", rawURL)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 URL %q needs a bucket and key", rawURL)
	}
	return bucket, key, nil
}

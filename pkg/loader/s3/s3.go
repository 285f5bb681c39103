package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/OFFIS-RIT/citegraph/pkg/loader"
)

// ObjectGetter is the part of the S3 client the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3PageLoader loads stored page snapshots from an S3 bucket. PageFile.Path
// is the object key.
type S3PageLoader struct {
	bucket string
	client ObjectGetter
	memo   *loader.Memo
}

// NewS3PageLoaderWithClient creates a loader on top of an existing client.
func NewS3PageLoaderWithClient(bucket string, client ObjectGetter) *S3PageLoader {
	return &S3PageLoader{
		bucket: bucket,
		client: client,
		memo:   loader.NewMemo(loader.DefaultCacheSize, loader.DefaultCacheTTL),
	}
}

// NewS3PageLoaderParams configures a loader with static credentials.
// Endpoint allows S3-compatible storage such as MinIO.
type NewS3PageLoaderParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

func NewS3PageLoader(ctx context.Context, params NewS3PageLoaderParams) (*S3PageLoader, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return NewS3PageLoaderWithClient(params.Bucket, client), nil
}

// SnapshotKey maps a page URL to its object key, "<host><path>.html".
// Anything that is not an http(s) URL is taken as a key already.
func SnapshotKey(path string) string {
	u, err := url.Parse(path)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return path
	}
	p := strings.TrimSuffix(u.EscapedPath(), "/")
	if p == "" {
		p = "/index"
	}
	return strings.ToLower(u.Host) + p + ".html"
}

// Load returns the snapshot stored under SnapshotKey(file.Path). A missing
// object is reported as loader.ErrFetchFailed.
func (l *S3PageLoader) Load(ctx context.Context, file loader.PageFile) ([]byte, error) {
	return l.memo.Do(loader.CacheKey(file), func() ([]byte, error) {
		key := SnapshotKey(file.Path)
		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var missing *types.NoSuchKey
			if errors.As(err, &missing) {
				return nil, fmt.Errorf("%w: no snapshot at %s", loader.ErrFetchFailed, key)
			}
			return nil, fmt.Errorf("failed to get snapshot from S3: %w", err)
		}
		defer out.Body.Close()

		data, err := io.ReadAll(out.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}
		return data, nil
	})
}

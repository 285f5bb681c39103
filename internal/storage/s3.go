package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/OFFIS-RIT/citegraph/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	DefaultReportPrefix = "reports"
	DownloadLinkTTL     = 15 * time.Minute
)

var ErrNotConfigured = errors.New("object storage is not configured")

// Config holds the AWS_* settings. Snapshots are read from Bucket and
// reports are written below ReportPrefix in the same bucket.
type Config struct {
	Region         string
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	ReportPrefix   string
}

func LoadConfig() Config {
	return Config{
		Region:         util.GetEnvString("AWS_REGION", "us-east-1"),
		Endpoint:       util.GetEnv("AWS_ENDPOINT"),
		PublicEndpoint: util.GetEnv("AWS_PUBLIC_ENDPOINT"),
		AccessKey:      util.GetEnv("AWS_ACCESS_KEY"),
		SecretKey:      util.GetEnv("AWS_SECRET_KEY"),
		Bucket:         util.GetEnv("AWS_BUCKET"),
		ReportPrefix:   util.GetEnvString("AWS_REPORT_PREFIX", DefaultReportPrefix),
	}
}

// Enabled reports whether a bucket is configured at all.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

func NewS3Client(ctx context.Context, c Config) (*s3.Client, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(c.Region),
	}
	if c.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(c.Endpoint))
	}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKey,
			c.SecretKey,
			"",
		)))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// GenerateDownloadLink presigns a GET for key. When publicEndpoint is set
// the link is signed for that host, and any path on it is kept as a prefix,
// so reports stay reachable behind a reverse proxy.
func GenerateDownloadLink(ctx context.Context, baseClient *s3.Client, bucket, publicEndpoint, key string) (string, error) {
	client := baseClient
	prefix := ""
	if publicEndpoint != "" {
		publicURL, err := url.Parse(publicEndpoint)
		if err != nil || publicURL.Scheme == "" || publicURL.Host == "" {
			return "", fmt.Errorf("invalid AWS_PUBLIC_ENDPOINT: %s", publicEndpoint)
		}
		prefix = strings.TrimSuffix(publicURL.Path, "/")

		client = s3.NewFromConfig(
			aws.Config{
				Region:      baseClient.Options().Region,
				Credentials: baseClient.Options().Credentials,
				HTTPClient:  baseClient.Options().HTTPClient,
			},
			func(o *s3.Options) {
				o.BaseEndpoint = aws.String(publicURL.Scheme + "://" + publicURL.Host)
				o.UsePathStyle = true
			},
		)
	}

	out, err := s3.NewPresignClient(client).PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(DownloadLinkTTL),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate download link: %w", err)
	}
	if prefix == "" {
		return out.URL, nil
	}

	signedURL, err := url.Parse(out.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse presigned url: %w", err)
	}
	signedURL.Path = prefix + signedURL.Path
	return signedURL.String(), nil
}

// DownloadLinks presigns every key, keeping the input order.
func DownloadLinks(ctx context.Context, client *s3.Client, c Config, keys []string) ([]string, error) {
	links := make([]string, 0, len(keys))
	for _, key := range keys {
		link, err := GenerateDownloadLink(ctx, client, c.Bucket, c.PublicEndpoint, key)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

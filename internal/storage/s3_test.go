package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func testClient() *s3.Client {
	return s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
		BaseEndpoint: aws.String("http://minio:9000"),
		UsePathStyle: true,
	})
}

func TestNewS3Client_RequiresBucket(t *testing.T) {
	_, err := NewS3Client(context.Background(), Config{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("AWS_BUCKET", "citegraph")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_REPORT_PREFIX", "")

	c := LoadConfig()
	if !c.Enabled() || c.Bucket != "citegraph" {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.Region != "us-east-1" || c.ReportPrefix != DefaultReportPrefix {
		t.Fatalf("expected defaults, got %+v", c)
	}
}

func TestGenerateDownloadLink(t *testing.T) {
	tests := []struct {
		name     string
		public   string
		wantHost string
		wantPath string
	}{
		{name: "internal endpoint", public: "", wantHost: "minio:9000", wantPath: "/citegraph/reports/run/summary_report.md"},
		{name: "public endpoint with prefix", public: "https://files.example.org/s3/", wantHost: "files.example.org", wantPath: "/s3/citegraph/reports/run/summary_report.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := GenerateDownloadLink(context.Background(), testClient(), "citegraph", tt.public, "reports/run/summary_report.md")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			u, err := url.Parse(link)
			if err != nil {
				t.Fatalf("invalid link %q: %v", link, err)
			}
			if u.Host != tt.wantHost || u.Path != tt.wantPath {
				t.Fatalf("got %s%s want %s%s", u.Host, u.Path, tt.wantHost, tt.wantPath)
			}
			if !strings.Contains(u.RawQuery, "X-Amz-Signature") {
				t.Fatalf("expected presigned query, got %q", u.RawQuery)
			}
		})
	}
}

func TestGenerateDownloadLink_InvalidPublicEndpoint(t *testing.T) {
	_, err := GenerateDownloadLink(context.Background(), testClient(), "b", "not a url", "k")
	if err == nil {
		t.Fatal("expected error for invalid public endpoint")
	}
}

func TestDownloadLinks_KeepsOrder(t *testing.T) {
	c := Config{Bucket: "citegraph"}
	links, err := DownloadLinks(context.Background(), testClient(), c, []string{"a.json", "b.md"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(links) != 2 || !strings.Contains(links[0], "/a.json") || !strings.Contains(links[1], "/b.md") {
		t.Fatalf("unexpected links: %v", links)
	}
}

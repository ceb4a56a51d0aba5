package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
	"github.com/dd0wney/apwr-dropcalc/pkg/logging"
	"github.com/dd0wney/apwr-dropcalc/pkg/metrics"
)

// ErrNoBucket is returned when publishing is configured without a bucket.
var ErrNoBucket = errors.New("no S3 bucket configured")

// ObjectPutter is the part of the S3 client the publisher needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads exported reports to an S3 bucket.
type S3Publisher struct {
	client  ObjectPutter
	bucket  string
	prefix  string
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewS3Publisher builds a publisher from the default AWS credential chain.
// An empty region leaves the region to the environment.
func NewS3Publisher(ctx context.Context, bucket, prefix, region string) (*S3Publisher, error) {
	if bucket == "" {
		return nil, ErrNoBucket
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewS3PublisherWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3PublisherWithClient wraps an existing client.
func NewS3PublisherWithClient(client ObjectPutter, bucket, prefix string) *S3Publisher {
	return &S3Publisher{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logging.NewNopLogger(),
	}
}

// SetLogger sets the logger used for upload messages.
func (p *S3Publisher) SetLogger(l logging.Logger) { p.logger = l }

// SetMetrics counts failed uploads in r.
func (p *S3Publisher) SetMetrics(r *metrics.Registry) { p.metrics = r }

// Key returns the object key for a file name.
func (p *S3Publisher) Key(name string) string {
	return path.Join(p.prefix, name)
}

// Put uploads body under name and returns its s3:// URI.
func (p *S3Publisher) Put(ctx context.Context, name string, f Format, body []byte) (string, error) {
	key := p.Key(name)
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(f.ContentType()),
	})
	if err != nil {
		if p.metrics != nil {
			p.metrics.ReportPublishErrors.Inc()
		}
		p.logger.Error("report upload failed",
			logging.String("bucket", p.bucket),
			logging.String("key", key),
			logging.Error(err))
		return "", fmt.Errorf("upload s3://%s/%s: %w", p.bucket, key, err)
	}

	uri := fmt.Sprintf("s3://%s/%s", p.bucket, key)
	p.logger.Info("report uploaded", logging.String("uri", uri), logging.Int("bytes", len(body)))
	return uri, nil
}

// PublishFile uploads a file written by Exporter.ExportAll.
func (p *S3Publisher) PublishFile(ctx context.Context, filename string) (string, error) {
	f, err := ParseFormat(filepath.Ext(filename))
	if err != nil {
		return "", err
	}
	body, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return p.Put(ctx, filepath.Base(filename), f, body)
}

// Publish renders res in every format, one report for the system and one
// per link, and uploads them. It stops at the first failure.
func (p *S3Publisher) Publish(ctx context.Context, e *Exporter, res *calc.Result, formats []Format) ([]string, error) {
	targets := append([]int{0}, res.LinkIDs()...)
	uris := make([]string, 0, len(formats)*len(targets))
	for _, f := range formats {
		for _, id := range targets {
			if err := ctx.Err(); err != nil {
				return uris, err
			}
			body, err := e.Bytes(res, Options{Format: f, LinkID: id, Pretty: true})
			if err != nil {
				return uris, err
			}
			uri, err := p.Put(ctx, Filename(res, f, id), f, body)
			if err != nil {
				return uris, err
			}
			uris = append(uris, uri)
		}
	}
	return uris, nil
}

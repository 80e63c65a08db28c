package evidence

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Exporter writes an evidence pack's three on-wire files under
// `<prefix><manifest.events_hash>/` in an S3 bucket, keyed by the
// pack's own content hash so repeated exports of an unchanged pack
// are naturally idempotent.
type S3Exporter struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3ExporterConfig configures an S3Exporter.
type S3ExporterConfig struct {
	Bucket   string
	Region   string
	Endpoint string // optional custom endpoint, e.g. MinIO/LocalStack
	Prefix   string
}

// NewS3Exporter builds an exporter against the configured bucket.
func NewS3Exporter(ctx context.Context, cfg S3ExporterConfig) (*S3Exporter, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("evidence: load aws config: %w", err)
	}

	clientOpts := func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}

	return &S3Exporter{
		client: s3.NewFromConfig(awsCfg, clientOpts),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Export uploads manifest.json, case.json, and events.jsonl under the
// pack's key prefix.
func (e *S3Exporter) Export(ctx context.Context, pack EvidencePack) error {
	wire, err := EncodeWireFiles(pack)
	if err != nil {
		return fmt.Errorf("evidence: encode wire files: %w", err)
	}

	base := e.prefix + pack.Manifest.EventsHash + "/"
	files := map[string][]byte{
		"manifest.json": wire.ManifestJSON,
		"case.json":     wire.CaseJSON,
		"events.jsonl":  wire.EventsJSONL,
	}
	for name, body := range files {
		_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(e.bucket),
			Key:         aws.String(base + name),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return fmt.Errorf("evidence: s3 put %s: %w", name, err)
		}
	}
	return nil
}

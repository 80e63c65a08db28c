//go:build gcp

package evidence

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// GCSExporter is the GCS-backed counterpart to S3Exporter, built only
// under the `gcp` build tag like the teacher's GCS artifact store.
type GCSExporter struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSExporterConfig configures a GCSExporter.
type GCSExporterConfig struct {
	Bucket string
	Prefix string
}

// NewGCSExporter builds an exporter using application default credentials.
func NewGCSExporter(ctx context.Context, cfg GCSExporterConfig) (*GCSExporter, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("evidence: create gcs client: %w", err)
	}
	return &GCSExporter{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (e *GCSExporter) Export(ctx context.Context, pack EvidencePack) error {
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
		w := e.client.Bucket(e.bucket).Object(base + name).NewWriter(ctx)
		w.ContentType = "application/json"
		if _, err := w.Write(body); err != nil {
			_ = w.Close()
			return fmt.Errorf("evidence: gcs write %s: %w", name, err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("evidence: gcs close %s: %w", name, err)
		}
	}
	return nil
}

func (e *GCSExporter) Close() error {
	return e.client.Close()
}

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvloznov/nett/internal/config"
	"github.com/dvloznov/nett/internal/gcs"
	"github.com/dvloznov/nett/internal/logger"
	"github.com/dvloznov/nett/internal/store/sqlite"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	var (
		bucketName string
		objectName string
		filePath   string
	)

	flag.StringVar(&bucketName, "bucket", "", "GCS bucket name (defaults to GCS_BUCKET)")
	flag.StringVar(&objectName, "object", "", "GCS object name (optional; defaults to snapshots/<file name>)")
	flag.StringVar(&filePath, "file", "", "Path to local JSON snapshot (required)")
	flag.Parse()

	if bucketName == "" {
		if cfg, err := config.Load(); err == nil {
			bucketName = cfg.GCSBucket
		}
	}
	if bucketName == "" || filePath == "" {
		log.Fatal().Msg("Usage: upload-snapshot -bucket BUCKET_NAME -file /path/to/snapshot.json [-object OBJECT_NAME]")
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	uri, err := upload(ctx, gcs.NewClient(), bucketName, objectName, filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", filePath, uri)
	fmt.Printf("Import it with: ingest -snapshot %s\n", uri)
}

// upload validates the snapshot at filePath and writes it to bucket. The
// object name defaults to the file name under snapshots/.
func upload(ctx context.Context, storage gcs.StorageService, bucket, object, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	snap, err := sqlite.DecodeSnapshot(data)
	if err != nil {
		return "", fmt.Errorf("upload: %s: %w", filePath, err)
	}
	if object == "" {
		object = "snapshots/" + filepath.Base(filePath)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("bucket", bucket).
		Str("object", object).
		Str("file", filePath).
		Int("transactions", len(snap.Transactions)).
		Msg("Uploading snapshot to GCS")

	if err := storage.Upload(ctx, bucket, object, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	return gcs.URI(bucket, object), nil
}

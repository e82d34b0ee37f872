package export

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/dvloznov/nett/internal/gcs"
	"github.com/dvloznov/nett/internal/logger"
	"github.com/dvloznov/nett/internal/table"
)

// ToFile writes rows as CSV to path, replacing any existing file.
func ToFile(path string, rows []table.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ToFile: %w", err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("ToFile: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("ToFile: closing %s: %w", path, err)
	}
	return nil
}

// ToGCS uploads rows as CSV to bucket/object and returns the gs:// URI.
func ToGCS(ctx context.Context, up Uploader, bucket, object string, rows []table.Row) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return "", fmt.Errorf("ToGCS: %w", err)
	}
	if err := up.Upload(ctx, bucket, object, &buf); err != nil {
		return "", fmt.Errorf("ToGCS: %w", err)
	}

	uri := gcs.URI(bucket, object)
	log := logger.FromContext(ctx)
	log.Info().Str("uri", uri).Int("rows", len(rows)).Msg("Exported transactions")
	return uri, nil
}

package export

import (
	"context"
	"io"
	"path"
	"time"
)

// Uploader stores an object in a bucket. gcs.Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, bucket, object string, r io.Reader) error
}

// ObjectName builds a timestamped object name such as
// exports/transactions-20240105T100000Z.csv.
func ObjectName(prefix string, now time.Time) string {
	return path.Join(prefix, "transactions-"+now.UTC().Format("20060102T150405Z")+".csv")
}

package notionsync

import (
	"context"

	"github.com/jomei/notionapi"
)

// Pages is the mirror database as the mirror sees it: pages keyed by the
// Transaction ID property.
type Pages interface {
	// Find returns the pages whose Transaction ID equals transactionID.
	Find(ctx context.Context, databaseID, transactionID string) ([]notionapi.Page, error)

	// List returns up to size pages starting at cursor. An empty cursor starts
	// at the beginning.
	List(ctx context.Context, databaseID string, cursor notionapi.Cursor, size int) (PageBatch, error)

	Create(ctx context.Context, databaseID string, props notionapi.Properties) (string, error)
	Update(ctx context.Context, pageID string, props notionapi.Properties) error
	Archive(ctx context.Context, pageID string) error
}

// PageBatch is one page of List results. Next is empty after the last batch.
type PageBatch struct {
	Pages []notionapi.Page
	Next  notionapi.Cursor
}

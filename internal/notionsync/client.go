package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// Client implements Pages with the Notion API.
type Client struct {
	api *notionapi.Client
}

// NewClient creates a Client for token. Rate-limited requests are retried up
// to retries times by the SDK.
func NewClient(token string, retries int) *Client {
	var opts []notionapi.ClientOption
	if retries > 0 {
		opts = append(opts, notionapi.WithRetry(retries))
	}
	return &Client{api: notionapi.NewClient(notionapi.Token(token), opts...)}
}

// Find implements Pages.
func (c *Client) Find(ctx context.Context, databaseID, transactionID string) ([]notionapi.Page, error) {
	resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property: PropTransactionID,
			RichText: &notionapi.TextFilterCondition{Equals: transactionID},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("Find: transaction %s: %w", transactionID, err)
	}
	return resp.Results, nil
}

// List implements Pages.
func (c *Client) List(ctx context.Context, databaseID string, cursor notionapi.Cursor, size int) (PageBatch, error) {
	resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), &notionapi.DatabaseQueryRequest{
		StartCursor: cursor,
		PageSize:    size,
	})
	if err != nil {
		return PageBatch{}, fmt.Errorf("List: %w", err)
	}
	batch := PageBatch{Pages: resp.Results}
	if resp.HasMore {
		batch.Next = resp.NextCursor
	}
	return batch, nil
}

// Create implements Pages and returns the new page's id.
func (c *Client) Create(ctx context.Context, databaseID string, props notionapi.Properties) (string, error) {
	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: props,
	})
	if err != nil {
		return "", fmt.Errorf("Create: %w", err)
	}
	return string(page.ID), nil
}

// Update implements Pages.
func (c *Client) Update(ctx context.Context, pageID string, props notionapi.Properties) error {
	if _, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Properties: props}); err != nil {
		return fmt.Errorf("Update: page %s: %w", pageID, err)
	}
	return nil
}

// Archive implements Pages.
func (c *Client) Archive(ctx context.Context, pageID string) error {
	if _, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Archived: true}); err != nil {
		return fmt.Errorf("Archive: page %s: %w", pageID, err)
	}
	return nil
}

var _ Pages = (*Client)(nil)

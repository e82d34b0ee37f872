package table

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ImageStatus is what is known about a remote image.
type ImageStatus int

const (
	ImageUnknown ImageStatus = iota
	ImageLoaded
	ImageErrored
)

// ImageCache remembers load outcomes per image URL so a row scrolled back
// into view does not show a spinner again. Least recently used URLs are evicted.
type ImageCache struct {
	entries *lru.Cache[string, ImageStatus]
}

// NewImageCache creates a cache holding at most size URLs.
func NewImageCache(size int) (*ImageCache, error) {
	entries, err := lru.New[string, ImageStatus](size)
	if err != nil {
		return nil, fmt.Errorf("NewImageCache: %w", err)
	}
	return &ImageCache{entries: entries}, nil
}

// Status returns the known status of url.
func (c *ImageCache) Status(url string) ImageStatus {
	if st, ok := c.entries.Get(url); ok {
		return st
	}
	return ImageUnknown
}

// MarkLoaded records a successful load.
func (c *ImageCache) MarkLoaded(url string) {
	c.entries.Add(url, ImageLoaded)
}

// MarkErrored records a failed load.
func (c *ImageCache) MarkErrored(url string) {
	c.entries.Add(url, ImageErrored)
}

// Len returns the number of cached URLs.
func (c *ImageCache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *ImageCache) Purge() {
	c.entries.Purge()
}

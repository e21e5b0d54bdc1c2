package cache

import "time"

// PageEntry is a cached API page.
type PageEntry struct {
	// Body is the raw JSON response body.
	Body []byte `json:"body"`

	// FetchedAt is when the page was fetched from the API.
	FetchedAt time.Time `json:"fetched_at"`
}

// NewPageEntry wraps a freshly fetched body.
func NewPageEntry(body []byte) *PageEntry {
	return &PageEntry{
		Body:      body,
		FetchedAt: time.Now(),
	}
}

// Age returns how long ago the page was fetched.
func (e *PageEntry) Age() time.Duration {
	return time.Since(e.FetchedAt)
}

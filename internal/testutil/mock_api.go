// Package testutil provides testing utilities for wikiload.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// APIPath is the path the mock serves, mirroring MediaWiki's api.php.
const APIPath = "/w/api.php"

// MockPage defines one scripted response.
type MockPage struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockWikiAPI is a scripted fake of the MediaWiki Action API. The n-th request
// is answered with the n-th page; requests past the script get a 500 so
// tests notice an over-fetching paginator.
type MockWikiAPI struct {
	server *httptest.Server
	mu     sync.Mutex
	pages  []MockPage

	requests []url.Values
	headers  []http.Header
}

// NewMockWikiAPI starts a mock server answering with pages in order.
func NewMockWikiAPI(pages ...MockPage) *MockWikiAPI {
	mock := &MockWikiAPI{pages: pages}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != APIPath {
			http.NotFound(w, r)
			return
		}

		mock.mu.Lock()
		n := len(mock.requests)
		mock.requests = append(mock.requests, r.URL.Query())
		mock.headers = append(mock.headers, r.Header.Clone())
		var page *MockPage
		if n < len(mock.pages) {
			page = &mock.pages[n]
		}
		mock.mu.Unlock()

		if page == nil {
			http.Error(w, `{"error":{"code":"unexpected","info":"request past end of script"}}`, http.StatusInternalServerError)
			return
		}

		if page.Delay > 0 {
			time.Sleep(page.Delay)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		for key, value := range page.Headers {
			w.Header().Set(key, value)
		}
		status := page.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write([]byte(page.Body))
	}))

	return mock
}

// URL returns the full api.php URL of the mock.
func (m *MockWikiAPI) URL() string {
	return m.server.URL + APIPath
}

// Close shuts down the mock server.
func (m *MockWikiAPI) Close() {
	m.server.Close()
}

// RequestCount returns the number of requests received.
func (m *MockWikiAPI) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns the query parameters of every request, in order.
func (m *MockWikiAPI) Requests() []url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]url.Values, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastHeader returns the headers of the most recent request.
func (m *MockWikiAPI) LastHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.headers) == 0 {
		return nil
	}
	return m.headers[len(m.headers)-1]
}

// RecentChangesPage builds a list=recentchanges response. A nil cont means
// the page is the last one.
func RecentChangesPage(records []map[string]any, cont map[string]string) MockPage {
	if records == nil {
		records = []map[string]any{}
	}
	body := map[string]any{
		"batchcomplete": "",
		"query":         map[string]any{"recentchanges": records},
	}
	if cont != nil {
		body["continue"] = cont
	}
	data, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return MockPage{StatusCode: http.StatusOK, Body: string(data)}
}

// NewAPIErrorPage builds a 200 response carrying a MediaWiki error object.
func NewAPIErrorPage(code, info string) MockPage {
	data, _ := json.Marshal(map[string]any{
		"error": map[string]string{"code": code, "info": info},
	})
	return MockPage{StatusCode: http.StatusOK, Body: string(data)}
}

// NewServerErrorPage creates a 503 response.
func NewServerErrorPage() MockPage {
	return MockPage{
		StatusCode: http.StatusServiceUnavailable,
		Body:       `{"error":"upstream unavailable"}`,
	}
}

// NewRateLimitPage creates a 429 response.
func NewRateLimitPage() MockPage {
	return MockPage{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error":"too many requests"}`,
		Headers:    map[string]string{"Retry-After": "1"},
	}
}

// NewMalformedPage creates a 200 response whose body is not JSON.
func NewMalformedPage() MockPage {
	return MockPage{
		StatusCode: http.StatusOK,
		Body:       `<html>maintenance</html>`,
	}
}

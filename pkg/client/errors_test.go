package client

import (
	"errors"
	"fmt"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{"client error should not retry", ErrorClassClient, false},
		{"server error should retry", ErrorClassServer, true},
		{"rate limit should retry", ErrorClassRateLimit, true},
		{"network error should retry", ErrorClassNetwork, true},
		{"empty error class should not retry", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetry(tt.errorClass); got != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.errorClass, got, tt.expected)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{200, ""},
		{204, ""},
		{304, ""},
		{400, ErrorClassClient},
		{404, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.want {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestClassifyAPICode(t *testing.T) {
	if got := classifyAPICode("maxlag"); got != ErrorClassRateLimit {
		t.Errorf("maxlag = %q, want rate_limit", got)
	}
	if got := classifyAPICode("ratelimited"); got != ErrorClassRateLimit {
		t.Errorf("ratelimited = %q, want rate_limit", got)
	}
	if got := classifyAPICode("badcontinue"); got != ErrorClassClient {
		t.Errorf("badcontinue = %q, want client", got)
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "wrapped network error",
			err:      &APIError{ErrorClass: ErrorClassNetwork, Err: errors.New("connection refused")},
			expected: "wiki API network error (status 0): connection refused",
		},
		{
			name:     "mediawiki error object",
			err:      &APIError{StatusCode: 200, ErrorClass: ErrorClassClient, Code: "badvalue", Info: "Unrecognized value for parameter \"list\""},
			expected: "wiki API client error (status 200): badvalue: Unrecognized value for parameter \"list\"",
		},
		{
			name:     "plain status",
			err:      &APIError{StatusCode: 503, ErrorClass: ErrorClassServer},
			expected: "wiki API server error (status 503): Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("dial tcp: i/o timeout")
	err := fmt.Errorf("page 3: %w", &APIError{ErrorClass: ErrorClassNetwork, Err: inner})

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.As should find the APIError")
	}
	if classOf(err) != ErrorClassNetwork {
		t.Errorf("classOf = %q, want network", classOf(err))
	}
	if classOf(errors.New("other")) != "" {
		t.Error("classOf of a plain error should be empty")
	}
}

package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrMalformedResponse is returned when a response body is not valid JSON.
	ErrMalformedResponse = errors.New("malformed JSON response")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses and MediaWiki API errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses and the maxlag API error.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError is a failed request to the wiki API. It covers non-2xx HTTP
// statuses, MediaWiki error objects in 2xx bodies, and network failures
// (StatusCode 0).
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	// Code and Info come from the MediaWiki "error" object, if any.
	Code string
	Info string
	Err  error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("wiki API %s error (status %d): %v", e.ErrorClass, e.StatusCode, e.Err)
	case e.Code != "":
		return fmt.Sprintf("wiki API %s error (status %d): %s: %s", e.ErrorClass, e.StatusCode, e.Code, e.Info)
	default:
		return fmt.Sprintf("wiki API %s error (status %d): %s", e.ErrorClass, e.StatusCode, http.StatusText(e.StatusCode))
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status to an error class. 2xx/3xx return "".
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classifyAPICode maps a MediaWiki error code to an error class.
func classifyAPICode(code string) ErrorClass {
	if code == "maxlag" || code == "ratelimited" {
		return ErrorClassRateLimit
	}
	return ErrorClassClient
}

// classOf extracts the error class of err, or "" when err is not an APIError.
func classOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	return ""
}

// shouldRetry determines if an error class is worth another attempt.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// Client errors and malformed bodies will not change on retry.
		return false
	}
}

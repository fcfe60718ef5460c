package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrRetryFailed         = errors.New("request failed after all retries") // Wraps the last underlying error
	ErrClientHTTPError     = errors.New("client HTTP error (4xx)")          // Wraps original error/status
	ErrServerHTTPError     = errors.New("server HTTP error (5xx)")          // Wraps original error/status
	ErrOtherHTTPError      = errors.New("other HTTP error (non-2xx)")       // Wraps original error/status
	ErrAllCandidatesFailed = errors.New("no candidate URL succeeded")       // Every scheme and path failed for a document
	ErrNoDocuments         = errors.New("no document could be used")        // Appliance-level total failure
	ErrParsing             = errors.New("parsing error")                    // Wraps specific parsing error (HTML, URL, JSON)
	ErrParserPanic         = errors.New("parser panicked")                  // Recovered panic inside a document parser
	ErrFilesystem          = errors.New("filesystem error")                 // Wraps os errors
	ErrDatabase            = errors.New("database error")                   // Wraps badger errors
	ErrSemaphoreTimeout    = errors.New("timeout acquiring semaphore")
	ErrRequestCreation     = errors.New("failed to create HTTP request")
	ErrResponseBodyRead    = errors.New("failed to read response body")
	ErrConfigValidation    = errors.New("configuration validation error")
)

// WrapErrorf annotates err with a formatted prefix, keeping it matchable with errors.Is.
// Returns nil when err is nil.
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// CategorizeError maps an error to a predefined category string for logging/metrics.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrNoDocuments):
		return "Appliance_NoDocuments"
	case errors.Is(err, ErrAllCandidatesFailed):
		// The last candidate's failure is the most telling one
		if category := categorizeRetry(err); category != "" {
			return "Unavailable_" + category
		}
		return "Unavailable_Unknown"
	case errors.Is(err, ErrRetryFailed):
		return "RetryFailed_" + categorizeRetry(err)
	case errors.Is(err, ErrClientHTTPError):
		errMsg := err.Error()
		if strings.Contains(errMsg, " 404 ") {
			return "HTTP_404"
		}
		if strings.Contains(errMsg, " 403 ") {
			return "HTTP_403"
		}
		if strings.Contains(errMsg, " 401 ") {
			return "HTTP_401"
		}
		return "HTTP_4xx"
	case errors.Is(err, ErrServerHTTPError):
		return "HTTP_5xx"
	case errors.Is(err, ErrOtherHTTPError):
		return "HTTP_OtherStatus"
	case errors.Is(err, ErrParserPanic):
		return "Content_ParserPanic"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "URL") {
			return "Content_ParsingURL"
		}
		if strings.Contains(errMsg, "html") || strings.Contains(errMsg, "HTML") {
			return "Content_ParsingHTML"
		}
		if strings.Contains(errMsg, "JSON") {
			return "Content_ParsingJSON"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrDatabase):
		return "Database_Other"
	case errors.Is(err, ErrSemaphoreTimeout):
		return "Resource_SemaphoreTimeout"
	case errors.Is(err, ErrRequestCreation):
		return "Internal_RequestCreation"
	case errors.Is(err, ErrResponseBodyRead):
		return "Network_BodyRead"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		if strings.Contains(err.Error(), "semaphore") {
			return "Resource_SemaphoreTimeout"
		}
		return "System_ContextDeadlineExceeded"
	}

	if category := networkCategory(err); category != "" {
		return "Network_" + category
	}
	return "Unknown"
}

// categorizeRetry names the cause behind a retry or candidate failure
func categorizeRetry(err error) string {
	switch {
	case errors.Is(err, ErrServerHTTPError):
		return "HTTPServer"
	case errors.Is(err, ErrClientHTTPError):
		if strings.Contains(err.Error(), " 401 ") {
			return "HTTPUnauthorized"
		}
		return "HTTPClient"
	}
	if category := networkCategory(err); category != "" {
		return category
	}
	return "NetworkOther"
}

func networkCategory(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Timeout"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return "Timeout"
	case strings.Contains(msg, "connection refused"):
		return "ConnectionRefused"
	case strings.Contains(msg, "no such host"):
		return "DNSLookup"
	case strings.Contains(msg, "tls") || strings.Contains(msg, "certificate"):
		return "TLS"
	case strings.Contains(msg, "reset by peer"):
		return "ConnectionReset"
	}
	return ""
}

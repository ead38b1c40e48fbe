package grid

import (
	"context"
	"errors"
	"net"
	"strings"
)

var (
	// ErrClosed is returned by ExportToCSV after Close.
	ErrClosed = errors.New("table engine closed")

	// ErrMalformedResponse wraps payloads that do not match the page contract.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNoSaver is returned by ExportToCSV when no FileSaver is configured.
	ErrNoSaver = errors.New("no file saver configured")
)

// ResponseError is a well-formed response that reports success=false.
type ResponseError struct {
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return "request unsuccessful"
	}
	return e.Message
}

// IsContractViolation reports whether err means the data source broke the
// response contract (success=false or malformed payload), as opposed to a
// transport failure.
func IsContractViolation(err error) bool {
	var re *ResponseError
	return errors.As(err, &re) || errors.Is(err, ErrMalformedResponse)
}

// UserMessage converts a fetch error into the text shown in State.Error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var re *ResponseError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if errors.Is(err, ErrMalformedResponse) {
		return "The server returned an unexpected response"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The request timed out. Please try again"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return "Unable to reach the server. Please try again"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return "Unable to reach the server. Please try again"
	case strings.Contains(msg, "connection reset"):
		return "The connection was interrupted. Please try again"
	}

	return "Failed to load data: " + err.Error()
}

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. The table server returns them in the "message" and "code" fields
// of its error envelope, and the terminal client shows the message verbatim.
//
// # Database Errors (DB001-DB099)
//
//	DB004 - Connection refused: Unable to connect to database
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused"
//
//	DB005 - Connection reset: Database connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
//	DB006 - Timeout: Operation timed out
//	        Action: Narrow the filters or try again later
//	        Patterns: "timeout"
//
// # Query Errors (QRY001-QRY099)
//
//	QRY001 - Invalid filter: A filter value does not match the column type
//	         Action: Check the value entered for that column
//	         Patterns: "invalid filter"
//
//	QRY002 - Unknown column: The filter refers to a column that does not exist
//	         Action: Refresh the table and try again
//	         Patterns: "unknown column"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - System busy: Too many exports in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many exports"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	REQ002 - Request timeout: Request timed out
//	         Action: Narrow the filters or check your connection
//	         Patterns: "context deadline exceeded"
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Table not found: The specified table does not exist
//	         Action: Verify the table name is correct
//	         Patterns: "table not found"
//
//	TBL002 - Unknown table: Table type is not configured
//	         Action: This table type is not configured
//	         Patterns: "unknown table"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns are defined
// before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Request lifecycle (REQ001-REQ002)
	// Checked before DB006 so a deadline is not reported as a database timeout.
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Narrow the filters or check your connection",
			Code:    "REQ002",
		},
	},

	// =========================================================================
	// Query Errors (QRY001-QRY002)
	// =========================================================================
	{
		pattern: "invalid filter",
		msg: UserMessage{
			Message: "A filter value does not match the column type",
			Action:  "Check the value entered for that column",
			Code:    "QRY001",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "The filter refers to a column that does not exist",
			Action:  "Refresh the table and try again",
			Code:    "QRY002",
		},
	},

	// =========================================================================
	// Export Errors (EXP001)
	// =========================================================================
	{
		pattern: "too many exports",
		msg: UserMessage{
			Message: "Too many exports in progress",
			Action:  "Please wait a moment and try again",
			Code:    "EXP001",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB004-DB006)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Narrow the filters or try again later",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// Table Errors (TBL001-TBL002)
	// =========================================================================
	{
		pattern: "table not found",
		msg: UserMessage{
			Message: "Table not found",
			Action:  "Verify the table name is correct",
			Code:    "TBL001",
		},
	},
	{
		pattern: "unknown table",
		msg: UserMessage{
			Message: "Unknown table",
			Action:  "This table is not configured",
			Code:    "TBL002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := fmt.Errorf("invalid filter for amount: %q", "abc")
//	msg := MapError(err)
//	// msg.Code == "QRY001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

const (
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrUnauthorized    = 1003
	ErrForbidden       = 1004
	ErrConflict        = 1005
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007
	ErrServiceUnavail  = 1008

	// Auth errors (2000-2999)
	ErrAuthInvalidToken = 2006
	ErrAuthTokenExpired = 2007

	// Roadmap / research errors (6000-6999)
	ErrRoadmapNotFound       = 6000
	ErrRoadmapInvalidTopic   = 6001
	ErrRoadmapInvalidOptions = 6002
	ErrInsufficientResources = 6003
	ErrGenerationInProgress  = 6004
	ErrAnalysisUnavailable   = 6005
	ErrInvalidResourceURL    = 6006
)

var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:    {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:       {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	ErrAuthInvalidToken: {ErrAuthInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	ErrAuthTokenExpired: {ErrAuthTokenExpired, http.StatusUnauthorized, "Token expired"},

	ErrRoadmapNotFound:       {ErrRoadmapNotFound, http.StatusNotFound, "Roadmap not found"},
	ErrRoadmapInvalidTopic:   {ErrRoadmapInvalidTopic, http.StatusBadRequest, "Invalid topic"},
	ErrRoadmapInvalidOptions: {ErrRoadmapInvalidOptions, http.StatusBadRequest, "Invalid roadmap options"},
	ErrInsufficientResources: {ErrInsufficientResources, http.StatusUnprocessableEntity, "Not enough valid resources"},
	ErrGenerationInProgress:  {ErrGenerationInProgress, http.StatusConflict, "Roadmap generation already in progress"},
	ErrAnalysisUnavailable:   {ErrAnalysisUnavailable, http.StatusUnprocessableEntity, "Insufficient data for analysis"},
	ErrInvalidResourceURL:    {ErrInvalidResourceURL, http.StatusBadRequest, "Invalid resource URL"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsClientError checks if the code represents a client error (4xx)
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}

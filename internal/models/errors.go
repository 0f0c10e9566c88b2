// Package models contains the data structures used throughout the application.
package models

import (
	"errors"
	"maps"
	"net/http"
	"os"
)

// Common error types for domain-specific errors
var (
	// User errors
	ErrUserNotFound          = errors.New("user not found")
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailAlreadyExists    = errors.New("email already taken")
	ErrUsernameAlreadyExists = errors.New("username already taken")
	ErrAccountDisabled       = errors.New("account is disabled")
	ErrPasswordTooWeak       = errors.New("password does not meet security requirements")
	ErrInvalidID             = errors.New("invalid ID format")

	// Playlist errors
	ErrPlaylistNotFound  = errors.New("playlist not found")
	ErrPlaylistArchived  = errors.New("playlist is archived")
	ErrPlaylistFull      = errors.New("playlist has reached its item limit")
	ErrItemNotFound      = errors.New("playlist item not found")
	ErrNameCollision     = errors.New("playlist name already in use")
	ErrStaleVersion      = errors.New("playlist was modified concurrently")
	ErrInvalidReorder    = errors.New("reorder list is not a permutation of the playlist items")
	ErrUnknownItem       = errors.New("reorder references an item not in the playlist")
	ErrDuplicateOrder    = errors.New("reorder assigns the same order twice")
	ErrOrderConflict     = errors.New("reorder collides with an unchanged item")
	ErrInvalidSchedule   = errors.New("invalid schedule configuration")
	ErrCollaboratorOwner = errors.New("owner cannot be added as a collaborator")

	// Screen errors
	ErrScreenNotFound      = errors.New("screen not found")
	ErrScreenAlreadyExists = errors.New("screen already registered")
	ErrScreenNotAssigned   = errors.New("playlist is not assigned to this screen")

	// Media errors
	ErrMediaNotFound    = errors.New("media not found")
	ErrInvalidMediaType = errors.New("invalid media type")

	// Validation errors
	ErrInvalidInput         = errors.New("invalid input")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidFormat        = errors.New("invalid format")

	// Authentication/authorization errors
	ErrAccessDenied    = errors.New("access denied")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrSessionExpired  = errors.New("session expired")
	ErrTooManyRequests = errors.New("too many requests")

	// System errors
	ErrInternalServer     = errors.New("internal server error")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
	ErrDatabaseError      = errors.New("database error")
	ErrCacheError         = errors.New("cache error")
	ErrFeatureDisabled    = errors.New("feature is disabled")
)

// DomainError represents an error that occurs in the application domain.
type DomainError struct {
	// Original is the underlying error
	Original error

	// Message is a human-readable error message
	Message string

	// Code is the HTTP status code
	Code int

	// Domain is the area of the application where the error occurred
	Domain string

	// Details contains additional context for the error
	Details map[string]any
}

// Error returns the error message
func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Original.Error()
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Original
}

// NewDomainError creates a new DomainError
func NewDomainError(err error, message string, code int, domain string) *DomainError {
	if message == "" && err != nil {
		message = err.Error()
	}

	return &DomainError{
		Original: err,
		Message:  message,
		Code:     code,
		Domain:   domain,
		Details:  make(map[string]any),
	}
}

// WithDetails adds details to the error
func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	maps.Copy(e.Details, details)
	return e
}

// AddDetail adds a single detail to the error
func (e *DomainError) AddDetail(key string, value any) *DomainError {
	e.Details[key] = value
	return e
}

// NewUserError creates a user-related domain error
func NewUserError(err error, message string, code int) *DomainError {
	return NewDomainError(err, message, code, "user")
}

// NewPlaylistError creates a playlist-related domain error
func NewPlaylistError(err error, message string, code int) *DomainError {
	return NewDomainError(err, message, code, "playlist")
}

// NewScreenError creates a screen-related domain error
func NewScreenError(err error, message string, code int) *DomainError {
	return NewDomainError(err, message, code, "screen")
}

// NewMediaError creates a media-related domain error
func NewMediaError(err error, message string, code int) *DomainError {
	return NewDomainError(err, message, code, "media")
}

// NewAuthError creates an authentication-related domain error
func NewAuthError(err error, message string, code int) *DomainError {
	return NewDomainError(err, message, code, "auth")
}

// NewValidationError creates a validation-related domain error
func NewValidationError(err error, message string) *DomainError {
	return NewDomainError(err, message, http.StatusUnprocessableEntity, "validation")
}

// NewConflictError creates a conflict domain error carrying the offending
// values as details.
func NewConflictError(err error, message string, details map[string]any) *DomainError {
	return NewDomainError(err, message, http.StatusConflict, "playlist").WithDetails(details)
}

// NewInternalError creates an internal server error
func NewInternalError(err error, message string) *DomainError {
	if message == "" {
		message = "An internal server error occurred"
	}
	return NewDomainError(err, message, http.StatusInternalServerError, "system")
}

// ErrorResponse represents the standard error response format for APIs
type ErrorResponse struct {
	// Success is always false for error responses
	Success bool `json:"success"`

	// Error contains information about the error
	Error struct {
		// Code is the HTTP status code
		Code int `json:"code"`

		// Message is a human-readable error message
		Message string `json:"message"`

		// Domain is the area of the application where the error occurred
		Domain string `json:"domain,omitempty"`

		// Details contains additional context for the error
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

// NewErrorResponse creates a new ErrorResponse from a DomainError
func NewErrorResponse(err error) ErrorResponse {
	response := ErrorResponse{
		Success: false,
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		response.Error.Code = domainErr.Code
		response.Error.Message = domainErr.Message
		response.Error.Domain = domainErr.Domain
		response.Error.Details = domainErr.Details
	} else {
		// Handle regular errors
		response.Error.Code = http.StatusInternalServerError
		response.Error.Message = "An unexpected error occurred"

		// Include the original error message in non-production environments
		if os.Getenv("APP_ENV") != "production" {
			response.Error.Details = map[string]any{
				"originalError": err.Error(),
			}
		}
	}

	return response
}

// ValidationErrorResponse represents validation errors for form fields
type ValidationErrorResponse struct {
	// Success is always false for error responses
	Success bool `json:"success"`

	// Error contains information about the validation error
	Error struct {
		// Code is the HTTP status code
		Code int `json:"code"`

		// Message is a human-readable error message
		Message string `json:"message"`

		// Fields maps field names to specific error messages
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

// NewValidationErrorResponse creates a new ValidationErrorResponse
func NewValidationErrorResponse(fieldErrors map[string]string) ValidationErrorResponse {
	response := ValidationErrorResponse{
		Success: false,
	}

	response.Error.Code = http.StatusUnprocessableEntity
	response.Error.Message = "Validation failed"
	response.Error.Fields = fieldErrors

	return response
}

// MapErrorToHTTPStatus maps common errors to HTTP status codes
func MapErrorToHTTPStatus(err error) int {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrPlaylistNotFound),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrScreenNotFound),
		errors.Is(err, ErrMediaNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrSessionExpired):
		return http.StatusUnauthorized

	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden

	case errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrEmailAlreadyExists),
		errors.Is(err, ErrUsernameAlreadyExists),
		errors.Is(err, ErrScreenAlreadyExists),
		errors.Is(err, ErrNameCollision),
		errors.Is(err, ErrStaleVersion),
		errors.Is(err, ErrDuplicateOrder),
		errors.Is(err, ErrOrderConflict),
		errors.Is(err, ErrPlaylistArchived):
		return http.StatusConflict

	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrMissingRequiredField),
		errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrPasswordTooWeak),
		errors.Is(err, ErrInvalidReorder),
		errors.Is(err, ErrUnknownItem),
		errors.Is(err, ErrInvalidSchedule),
		errors.Is(err, ErrCollaboratorOwner),
		errors.Is(err, ErrInvalidMediaType),
		errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest

	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests

	case errors.Is(err, ErrPlaylistFull):
		return http.StatusUnprocessableEntity

	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// FormatValidationErrors formats validation errors into a map of field names to error messages
func FormatValidationErrors(err error, fieldErrors map[string]string) map[string]string {
	if fieldErrors == nil {
		fieldErrors = make(map[string]string)
	}

	// Add the general error if it's not already in the map
	if err != nil && len(fieldErrors) == 0 {
		fieldErrors["_error"] = err.Error()
	}

	return fieldErrors
}

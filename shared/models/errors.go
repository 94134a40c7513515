package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound        = errors.New("resource not found") // General not found
	ErrSessionNotFound = errors.New("game session not found")
	ErrSaveNotFound    = errors.New("save slot not found")
	ErrEventNotFound   = errors.New("event not found in catalog")

	// Authentication Errors
	ErrUnauthorized = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden    = errors.New("forbidden")    // Authenticated, but lacks permission

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Gameplay Errors
	ErrNoActiveEvent   = errors.New("no event is currently active")
	ErrInvalidOption   = errors.New("option index out of range for the active event")
	ErrGameCompleted   = errors.New("game session is already completed")
	ErrDuplicateEvent  = errors.New("duplicate event id in catalog")
	ErrCatalogInvalid  = errors.New("event catalog is malformed")
	ErrSessionConflict = errors.New("action conflicts with the current session state")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)

// Machine-readable error codes for API responses.
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeTokenInvalid  = "TOKEN_INVALID"
	ErrCodeTokenExpired  = "TOKEN_EXPIRED"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeGameCompleted = "GAME_COMPLETED"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// ErrorResponse — стандартное тело ошибки API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

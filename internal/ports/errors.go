package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these so callers can use errors.Is.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Market Data Errors
	ErrDataSourceUnavailable = errors.New("market data source is unavailable")
	ErrMalformedData         = errors.New("market data is malformed")
	ErrConnectionFailed      = errors.New("failed to connect to the data provider")
	ErrRateLimited           = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed  = errors.New("data provider authentication failed (check API keys)")

	// Persistence Errors
	ErrCorruptState = errors.New("persisted state is corrupt")
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
	ErrDeleteFailed = errors.New("database delete failed")

	// Messaging Errors
	ErrPublishFailed = errors.New("failed to publish event")
)

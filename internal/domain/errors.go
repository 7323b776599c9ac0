package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrTransport indicates the request never produced a usable response
	ErrTransport = errors.New("transport failure")

	// ErrDecode indicates a response body did not have the expected shape
	ErrDecode = errors.New("malformed response body")

	// ErrNormalize indicates a record is missing its identity field
	ErrNormalize = errors.New("record has no identity")

	// ErrConfigurationMissing indicates no server base URL is configured.
	// The homepage treats this as a state, not a failure.
	ErrConfigurationMissing = errors.New("server is not configured")

	// ErrItemNotFound indicates the requested item does not exist
	ErrItemNotFound = errors.New("item not found")

	// ErrServerOffline indicates the server is unreachable
	ErrServerOffline = errors.New("server is unreachable")

	// ErrAuthFailed indicates the configured credentials were rejected
	ErrAuthFailed = errors.New("credentials were rejected")
)

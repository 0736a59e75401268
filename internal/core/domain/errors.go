package domain

import "errors"

// Domain errors represent storage protocol failures.
// Callers match them with errors.Is; adapters wrap them with context.
var (
	// ErrNotFound indicates no row matches a lookup.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists indicates a unique-constraint race was lost while creating a row.
	// The ingestion protocol retries on it and never surfaces it to its callers.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrStoreBusy indicates the relational store reported lock contention.
	// Retried by the ingestion protocol up to its attempt cap.
	ErrStoreBusy = errors.New("store busy")

	// ErrStorageIO indicates a blob file could not be read or written.
	ErrStorageIO = errors.New("storage io failure")

	// ErrMalformedMetadata indicates a metadata log line could not be parsed.
	ErrMalformedMetadata = errors.New("malformed metadata line")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedLevel indicates a level that the operation cannot serve.
	ErrUnsupportedLevel = errors.New("unsupported level")

	// ErrUnsupportedColumn indicates a column that does not exist on a level's table.
	ErrUnsupportedColumn = errors.New("unsupported column")
)

// IsRetryable reports whether err is one of the two kinds the ingestion
// protocol retries: a lost creation race or a busy store.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrStoreBusy)
}

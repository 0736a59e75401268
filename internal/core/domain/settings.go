package domain

import "time"

// Default settings values.
const (
	DefaultFingerprint = "md5"
	DefaultMaxAttempts = 5
	DefaultBusyTimeout = 5 * time.Second
	DefaultWatchRate   = 10.0
)

// Settings holds the resolved storage and ingestion configuration.
type Settings struct {
	// DataDir holds the relational database and the blob file triples.
	DataDir string

	// Fingerprint names the content hash algorithm ("md5" or "blake3").
	Fingerprint string

	// MaxAttempts caps the ingestion retry loop.
	MaxAttempts int

	// BusyTimeout is how long the relational store waits on a lock
	// before reporting busy.
	BusyTimeout time.Duration

	// SaveBinary persists original document bytes in the blob store.
	SaveBinary bool

	// IndexerID identifies this process in occurrence rows.
	IndexerID string

	// WatchRate limits how many files per second the watch command ingests.
	WatchRate float64
}

// DefaultSettings returns settings with defaults applied.
// DataDir is left empty; adapters resolve it to their own default.
func DefaultSettings() Settings {
	return Settings{
		Fingerprint: DefaultFingerprint,
		MaxAttempts: DefaultMaxAttempts,
		BusyTimeout: DefaultBusyTimeout,
		SaveBinary:  true,
		WatchRate:   DefaultWatchRate,
	}
}

// Package driven declares what the core needs from storage:
//
//   - RecordStore: the relational index of records, urls, occurrences and
//     their associations, including level-to-level projections
//   - BlobStore: one append-only byte store per storage level
//   - ConfigStore: flat dot-key configuration
//
// Implementations live under internal/adapters/driven.
package driven

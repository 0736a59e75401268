// Package blob provides the file-backed implementation of driven.BlobStore.
//
// Each store owns three files sharing a base name:
//
//   - <name>.data: raw bytes, append-only
//   - <name>.idx: 16 bytes per id at (id-1)*16, big-endian offset then length
//   - <name>.meta: one tab-separated line per save:
//     id, meta, indexer, contentType, lastChangeTime, url
//
// # Thread Safety
//
// Save reserves its byte range under a per-store mutex, writes the bytes
// at the reserved offset without the lock, then takes the lock again to
// write the index record and metadata line. A reader never sees an index
// record whose bytes are not yet written. Stores for different levels
// never share a lock.
package blob

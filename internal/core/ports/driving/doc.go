// Package driving declares the operations the CLI and the MCP server call:
// ingestion and lookups, level mapping, and settings.
// internal/core/services implements them.
package driving

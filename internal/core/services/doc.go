// Package services implements the driving ports over the driven ones:
// the dedup-aware ingestion protocol, the level mapper and settings.
package services

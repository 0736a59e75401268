package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driven"
	"github.com/custodia-labs/docstore/internal/core/ports/driving"
	"github.com/custodia-labs/docstore/internal/fingerprint"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyDataDir     = "storage.data_dir"
	keyFingerprint = "storage.fingerprint"
	keyMaxAttempts = "storage.max_attempts"
	keyBusyTimeout = "storage.busy_timeout_ms"
	keySaveBinary  = "ingest.save_binary"
	keyIndexerID   = "ingest.indexer_id"
	keyWatchRate   = "watch.rate_per_second"
)

// SettingsService manages docstore settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current settings. Missing or invalid values fall back to defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	settings.DataDir = s.configStore.GetString(keyDataDir)
	settings.IndexerID = s.configStore.GetString(keyIndexerID)

	if name := s.configStore.GetString(keyFingerprint); name != "" {
		if h, err := fingerprint.New(name); err == nil {
			settings.Fingerprint = h.Name()
		}
	}
	if n := s.configStore.GetInt(keyMaxAttempts); n > 0 {
		settings.MaxAttempts = n
	}
	if ms := s.configStore.GetInt(keyBusyTimeout); ms > 0 {
		settings.BusyTimeout = time.Duration(ms) * time.Millisecond
	}
	if _, ok := s.configStore.Get(keySaveBinary); ok {
		settings.SaveBinary = s.configStore.GetBool(keySaveBinary)
	}
	if r := s.configStore.GetFloat(keyWatchRate); r > 0 {
		settings.WatchRate = r
	}

	return &settings, nil
}

// Set validates value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	parsed, err := parseSetting(key, strings.TrimSpace(value))
	if err != nil {
		return err
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := s.configStore.Save(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseSetting(key, value string) (any, error) {
	switch key {
	case keyDataDir, keyIndexerID:
		return value, nil
	case keyFingerprint:
		h, err := fingerprint.New(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		return h.Name(), nil
	case keyMaxAttempts, keyBusyTimeout:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrInvalidInput, key, value)
		}
		return n, nil
	case keySaveBinary:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be true or false, got %q", domain.ErrInvalidInput, key, value)
		}
		return b, nil
	case keyWatchRate:
		r, err := strconv.ParseFloat(value, 64)
		if err != nil || r <= 0 {
			return nil, fmt.Errorf("%w: %s must be a positive number, got %q", domain.ErrInvalidInput, key, value)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
}

// Keys lists the recognised setting keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := []string{
		keyDataDir, keyFingerprint, keyMaxAttempts, keyBusyTimeout,
		keySaveBinary, keyIndexerID, keyWatchRate,
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

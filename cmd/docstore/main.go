// Command docstore is a content-addressable document store with a level mapper.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/docstore/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docstore/internal/adapters/driven/storage/blob"
	"github.com/custodia-labs/docstore/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docstore/internal/adapters/driving/cli"
	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driven"
	"github.com/custodia-labs/docstore/internal/core/ports/driving"
	"github.com/custodia-labs/docstore/internal/core/services"
	"github.com/custodia-labs/docstore/internal/fingerprint"
	"github.com/custodia-labs/docstore/internal/logger"
)

// Set by the release build.
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		return err
	}
	settingsService := services.NewSettingsService(configStore)

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetOpener(storeOpener(settingsService))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx)
}

// storeOpener opens the store with the current settings. A non-empty
// dataDir overrides the configured one.
func storeOpener(settingsService driving.SettingsService) cli.Opener {
	return func(dataDir string) (driving.DocumentService, driving.MappingService, io.Closer, error) {
		settings, err := settingsService.Get()
		if err != nil {
			return nil, nil, nil, err
		}
		if dataDir != "" {
			settings.DataDir = dataDir
		}
		return openStore(*settings)
	}
}

// openStore opens the relational store and the blob stores under
// settings.DataDir and builds the services over them.
func openStore(settings domain.Settings) (driving.DocumentService, driving.MappingService, io.Closer, error) {
	dir, err := resolveDataDir(settings.DataDir)
	if err != nil {
		return nil, nil, nil, err
	}

	hasher, err := fingerprint.New(settings.Fingerprint)
	if err != nil {
		return nil, nil, nil, err
	}

	records, err := sqlite.NewStore(dir, settings.BusyTimeout)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}

	blobs, err := blob.OpenLevels(dir)
	if err != nil {
		_ = records.Close()
		return nil, nil, nil, err
	}

	logger.Debug("Opened store in %s (fingerprint %s)", dir, hasher.Name())

	document := services.NewDocumentService(records, blobs, hasher, nil, settings.MaxAttempts)
	mapping := services.NewMappingService(records)
	return document, mapping, &storeCloser{records: records, blobs: blobs}, nil
}

func resolveDataDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".docstore", "data"), nil
}

type storeCloser struct {
	records *sqlite.Store
	blobs   map[domain.Level]driven.BlobStore
}

func (c *storeCloser) Close() error {
	errs := []error{c.records.Close()}
	for _, b := range c.blobs {
		errs = append(errs, b.Close())
	}
	return errors.Join(errs...)
}

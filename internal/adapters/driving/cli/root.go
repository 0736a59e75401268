// Package cli is the cobra command tree for docstore.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstore/internal/core/ports/driving"
	"github.com/custodia-labs/docstore/internal/logger"
)

// annotationStore marks commands that need the store-backed services.
const annotationStore = "docstore.store"

// Opener builds the store-backed services. An empty dataDir uses the
// configured directory.
type Opener func(dataDir string) (driving.DocumentService, driving.MappingService, io.Closer, error)

var (
	version = "dev"

	verbose bool
	dataDir string

	documentService driving.DocumentService
	mappingService  driving.MappingService
	settingsService driving.SettingsService

	opener Opener
	closer io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "docstore",
	Short: "Content-addressable document store",
	Long: `docstore stores documents, paragraphs and sentences once per distinct
content, records every time a document is seen at a url, and maps records
between levels (sentence, paragraph, document, occurrence, url).`,
	SilenceUsage:      true,
	PersistentPreRunE: openServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides storage.data_dir)")
}

// needsStore marks cmd as requiring the store-backed services.
func needsStore(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = make(map[string]string)
	}
	cmd.Annotations[annotationStore] = "true"
	return cmd
}

func openServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationStore] != "true" || opener == nil || documentService != nil {
		return nil
	}

	doc, mapping, c, err := opener(dataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	documentService, mappingService, closer = doc, mapping, c
	return nil
}

// SetSettingsService injects the settings service.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetServices injects already opened store-backed services.
func SetServices(doc driving.DocumentService, mapping driving.MappingService) {
	documentService, mappingService = doc, mapping
}

// SetOpener registers how store-backed services are opened on first use.
func SetOpener(o Opener) {
	opener = o
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command and closes anything it opened.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closer != nil {
		err = errors.Join(err, closer.Close())
		closer = nil
	}
	return err
}

// commandContext returns the command's context, or Background when run
// without one (tests call rootCmd.Execute directly).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

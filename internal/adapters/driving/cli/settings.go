package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long:  `View and change storage and ingestion settings.`,
	RunE:  runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Validate and persist a single setting.

Keys:
  storage.data_dir          directory for the database and blob files
  storage.fingerprint       md5 or blake3
  storage.max_attempts      ingestion retry cap
  storage.busy_timeout_ms   how long to wait on a locked database
  ingest.save_binary        store original document bytes (true/false)
  ingest.indexer_id         indexer id recorded with each occurrence
  watch.rate_per_second     watch ingest throttle`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Data directory: %s\n", orDefault(settings.DataDir, "(default)"))
	cmd.Printf("  Fingerprint:    %s\n", settings.Fingerprint)
	cmd.Printf("  Max attempts:   %d\n", settings.MaxAttempts)
	cmd.Printf("  Busy timeout:   %s\n", settings.BusyTimeout)
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Save binary:    %s\n", yesNo(settings.SaveBinary))
	cmd.Printf("  Indexer id:     %s\n", orDefault(settings.IndexerID, "(generated per run)"))
	cmd.Println()

	cmd.Println("[Watch]")
	cmd.Printf("  Rate:           %g files/s\n", settings.WatchRate)

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w\nKnown keys: %s", key, err, strings.Join(settingsService.Keys(), ", "))
	}

	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

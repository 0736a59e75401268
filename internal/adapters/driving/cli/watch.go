package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/logger"
)

var watchOpts ingestOptions

var watchFlags struct {
	rate    float64
	initial bool
}

var watchCmd = needsStore(&cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest files as they are created or modified",
	Long: `Watches dir and its subdirectories and ingests every file that is
created or written, recording a new occurrence each time. Ingests are
throttled to --rate files per second (default watch.rate_per_second).
Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
})

func init() {
	addIngestFlags(watchCmd, &watchOpts)
	watchCmd.Flags().Float64Var(&watchFlags.rate, "rate", 0, "files per second (default watch.rate_per_second)")
	watchCmd.Flags().BoolVar(&watchFlags.initial, "initial", false, "ingest existing files before watching")
	rootCmd.AddCommand(watchCmd)
}

// ingestFunc stores one file.
type ingestFunc func(ctx context.Context, path string) error

// watcher feeds filesystem events under a tree into an ingestFunc.
type watcher struct {
	fs      *fsnotify.Watcher
	limiter *rate.Limiter
	ingest  ingestFunc
}

func newWatcher(perSecond float64, ingest ingestFunc) (*watcher, error) {
	if perSecond <= 0 {
		return nil, fmt.Errorf("%w: rate must be positive, got %v", domain.ErrInvalidInput, perSecond)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &watcher{
		fs:      fsw,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		ingest:  ingest,
	}, nil
}

// addTree watches root and every directory below it.
func (w *watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fs.Add(path)
		}
		return nil
	})
}

// ingestTree ingests every regular file below root.
func (w *watcher) ingestTree(ctx context.Context, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return w.throttled(ctx, path)
	})
}

func (w *watcher) throttled(ctx context.Context, path string) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := w.ingest(ctx, path); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Ingest %s: %v", path, err)
	}
	return nil
}

// run processes events until ctx is done or the watcher is closed.
func (w *watcher) run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if err := w.handle(ctx, event); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

func (w *watcher) handle(ctx context.Context, event fsnotify.Event) error {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return nil
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Removed or renamed before we got to it.
		logger.Debug("Skipping %s: %v", event.Name, err)
		return nil
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addTree(event.Name); err != nil {
				logger.Warn("Watch %s: %v", event.Name, err)
			}
		}
		return nil
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	return w.throttled(ctx, event.Name)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	root := args[0]
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	opts, err := resolveIngestOptions(watchOpts)
	if err != nil {
		return err
	}

	perSecond := watchFlags.rate
	if !cmd.Flags().Changed("rate") {
		perSecond = domain.DefaultWatchRate
		if settingsService != nil {
			if settings, err := settingsService.Get(); err == nil {
				perSecond = settings.WatchRate
			}
		}
	}

	ctx := commandContext(cmd)
	w, err := newWatcher(perSecond, func(ctx context.Context, path string) error {
		doc, err := ingestFile(ctx, documentService, path, opts)
		if err != nil {
			return err
		}
		if doc == nil {
			cmd.Printf("%s: store busy, gave up after retries\n", path)
			return nil
		}
		cmd.Printf("%s: document %d %s\n", path, doc.ID, doc.Hash)
		return nil
	})
	if err != nil {
		return err
	}

	if err := w.addTree(root); err != nil {
		_ = w.fs.Close()
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	if watchFlags.initial {
		if err := w.ingestTree(ctx, root); err != nil && !errors.Is(err, context.Canceled) {
			_ = w.fs.Close()
			return err
		}
	}

	cmd.Printf("Watching %s as indexer %s (%.2g files/s)\n", root, opts.indexerID, perSecond)
	return w.run(ctx)
}

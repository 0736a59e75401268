package cli

import (
	"bytes"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstore/internal/adapters/driven/storage/blob"
	"github.com/custodia-labs/docstore/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docstore/internal/adapters/driven/storage/storagetest"
	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/services"
)

var testEpoch = time.Unix(1_700_000_000, 0)

// testServices are the real services over in-memory records and a
// temporary blob directory.
type testServices struct {
	records  *memory.RecordStore
	config   *memory.ConfigStore
	document *services.DocumentService
	mapping  *services.MappingService
}

// setupTestServices installs fresh services and restores the previous
// ones when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	blobs, err := blob.OpenLevels(t.TempDir())
	require.NoError(t, err)

	ts := &testServices{
		records: memory.NewRecordStore(),
		config:  memory.NewConfigStore(),
	}
	ts.document = services.NewDocumentService(ts.records, blobs, nil, domain.FixedClock(testEpoch), 0)
	ts.mapping = services.NewMappingService(ts.records)

	oldDoc, oldMapping, oldSettings, oldOpener := documentService, mappingService, settingsService, opener
	documentService, mappingService = ts.document, ts.mapping
	settingsService = services.NewSettingsService(ts.config)
	opener = nil

	t.Cleanup(func() {
		for _, s := range blobs {
			_ = s.Close()
		}
		documentService, mappingService, settingsService, opener = oldDoc, oldMapping, oldSettings, oldOpener
	})
	return ts
}

// setupFixtureServices installs services over the shared mapping fixture.
func setupFixtureServices(t *testing.T) *testServices {
	t.Helper()
	ts := setupTestServices(t)
	storagetest.Load(t, ts.records)
	return ts
}

// clearServices unsets every service for the duration of the test.
func clearServices(t *testing.T) {
	t.Helper()
	oldDoc, oldMapping, oldSettings, oldOpener := documentService, mappingService, settingsService, opener
	documentService, mappingService, settingsService, opener = nil, nil, nil, nil
	t.Cleanup(func() {
		documentService, mappingService, settingsService, opener = oldDoc, oldMapping, oldSettings, oldOpener
	})
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	if stdin != nil {
		rootCmd.SetIn(stdin)
	}
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default, since cobra keeps flag
// state between executions in one process. Slice values remember that they
// were set and append on the next Set, so they are replaced by fresh ones.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Value.Type() == "stringSlice" {
			def := strings.Trim(f.DefValue, "[]")
			vals := []string{}
			if def != "" {
				vals = strings.Split(def, ",")
			}
			fresh := pflag.NewFlagSet(f.Name, pflag.ContinueOnError)
			fresh.StringSlice(f.Name, vals, f.Usage)
			f.Value = fresh.Lookup(f.Name).Value
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// tsvBody returns the header line and the sorted data lines of TSV output.
func tsvBody(out string) (string, []string) {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) == 0 {
		return "", nil
	}
	body := append([]string{}, lines[1:]...)
	sort.Strings(body)
	return lines[0], body
}

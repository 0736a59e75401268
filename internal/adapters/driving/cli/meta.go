package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstore/internal/core/domain"
)

var metaCmd = needsStore(&cobra.Command{
	Use:   "meta [level]",
	Short: "List the metadata stored with each blob at a level",
	Args:  cobra.ExactArgs(1),
	RunE:  runMeta,
})

func init() {
	rootCmd.AddCommand(metaCmd)
}

func runMeta(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	level, err := domain.ParseLevel(args[0])
	if err != nil {
		return err
	}

	meta, err := documentService.GetMeta(commandContext(cmd), level)
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	ids := make([]int64, 0, len(meta))
	for id := range meta {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([][]string, len(ids))
	for i, id := range ids {
		m := meta[id]
		rows[i] = []string{
			strconv.FormatInt(id, 10),
			m.Indexer,
			m.ContentType,
			strconv.FormatInt(m.LastChangeTime, 10),
			m.URL,
			m.Meta,
		}
	}
	return writeRows(cmd.OutOrStdout(), []string{"id", "indexer", "content-type", "last-change", "url", "meta"}, rows)
}

package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var statsCmd = needsStore(&cobra.Command{
	Use:   "stats",
	Short: "Show row counts per table",
	Args:  cobra.NoArgs,
	RunE:  runStats,
})

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	st, err := documentService.Stats(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	counts := []struct {
		table string
		n     int64
	}{
		{"Document", st.Documents},
		{"Paragraph", st.Paragraphs},
		{"Sentence", st.Sentences},
		{"Url", st.URLs},
		{"Occurrence", st.Occurrences},
		{"DocumentOfParagraph", st.DocumentOfParagraph},
		{"ParagraphOfSentence", st.ParagraphOfSentence},
		{"SentenceOccurrence", st.SentenceOccurrence},
	}
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.table, strconv.FormatInt(c.n, 10)}
	}
	return writeRows(cmd.OutOrStdout(), []string{"table", "rows"}, rows)
}

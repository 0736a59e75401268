package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstore/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Look up stored documents",
	Long:  `Find documents by hash, by id, or by when they were seen at a url.`,
}

var documentGetCmd = needsStore(&cobra.Command{
	Use:   "get",
	Short: "Show a document and its occurrences",
	Long: `Select a document with exactly one of --hash, --id or --url.

With --url, pick the occurrence closest to --at, or the closest one at or
before --before, or at or after --after, or the earliest one inside
--from/--to. Times are epoch seconds.`,
	Args: cobra.NoArgs,
	RunE: runDocumentGet,
})

var documentOccurrencesCmd = needsStore(&cobra.Command{
	Use:   "occurrences [doc-id]",
	Short: "List every time a document was seen",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentOccurrences,
})

// documentFlags are the selectors of document get.
var documentFlags struct {
	hash   string
	id     int64
	url    string
	at     int64
	before int64
	after  int64
	from   int64
	to     int64
	json   bool
}

func init() {
	f := documentGetCmd.Flags()
	f.StringVar(&documentFlags.hash, "hash", "", "content hash")
	f.Int64Var(&documentFlags.id, "id", 0, "document id")
	f.StringVar(&documentFlags.url, "url", "", "url the document was seen at")
	f.Int64Var(&documentFlags.at, "at", 0, "closest occurrence to this time")
	f.Int64Var(&documentFlags.before, "before", 0, "closest occurrence at or before this time")
	f.Int64Var(&documentFlags.after, "after", 0, "closest occurrence at or after this time")
	f.Int64Var(&documentFlags.from, "from", 0, "window start")
	f.Int64Var(&documentFlags.to, "to", 0, "window end, inclusive")
	f.BoolVar(&documentFlags.json, "json", false, "output as JSON")

	documentGetCmd.MarkFlagsMutuallyExclusive("at", "before", "after", "from")
	documentGetCmd.MarkFlagsMutuallyExclusive("at", "before", "after", "to")
	documentGetCmd.MarkFlagsRequiredTogether("from", "to")

	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentOccurrencesCmd)
	rootCmd.AddCommand(documentCmd)
}

func documentQueryFromFlags(cmd *cobra.Command) domain.DocumentQuery {
	q := domain.DocumentQuery{Hash: documentFlags.hash, ID: documentFlags.id, URL: documentFlags.url}

	changed := cmd.Flags().Changed
	switch {
	case changed("from"):
		q.Range, q.Low, q.High = true, documentFlags.from, documentFlags.to
	case changed("before"):
		q.Time, q.Bound = documentFlags.before, domain.TimeBefore
	case changed("after"):
		q.Time, q.Bound = documentFlags.after, domain.TimeAfter
	case changed("at"):
		q.Time = documentFlags.at
	default:
		q.Time = time.Now().Unix()
	}
	return q
}

func runDocumentGet(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.FindDocument(commandContext(cmd), documentQueryFromFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if documentFlags.json {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Document: %d\n\n", doc.ID)
	cmd.Printf("  Hash:        %s\n", doc.Hash)
	cmd.Printf("  Occurrences: %d\n", len(doc.Occurrences))
	if len(doc.Occurrences) > 0 {
		cmd.Println()
		return writeOccurrences(cmd, doc.Occurrences)
	}
	return nil
}

func runDocumentOccurrences(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid document id %q", args[0])
	}

	occurrences, err := documentService.Occurrences(commandContext(cmd), id)
	if err != nil {
		return fmt.Errorf("failed to list occurrences: %w", err)
	}
	if len(occurrences) == 0 {
		cmd.Printf("No occurrences found for document: %d\n", id)
		return nil
	}
	return writeOccurrences(cmd, occurrences)
}

func writeOccurrences(cmd *cobra.Command, occurrences []domain.Occurrence) error {
	rows := make([][]string, len(occurrences))
	for i, o := range occurrences {
		rows[i] = []string{
			strconv.FormatInt(o.ID, 10),
			strconv.FormatInt(o.Time, 10),
			time.Unix(o.Time, 0).UTC().Format(time.RFC3339),
			o.URL.URL,
			o.IndexerID,
		}
	}
	return writeRows(cmd.OutOrStdout(), []string{"id", "time", "observed", "url", "indexer"}, rows)
}

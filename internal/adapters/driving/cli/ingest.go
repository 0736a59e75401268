package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driving"
)

// ingestOptions are the flags shared by ingest and watch.
type ingestOptions struct {
	indexerID   string
	url         string
	meta        string
	contentType string
	language    string
	noBinary    bool
	segments    string
}

// segmentFile is the pre-segmented structure of a document:
// sentences[i] are the sentences of paragraphs[i].
type segmentFile struct {
	Paragraphs []string   `json:"paragraphs"`
	Sentences  [][]string `json:"sentences"`
}

var ingestOpts ingestOptions

var ingestCmd = needsStore(&cobra.Command{
	Use:   "ingest [file...]",
	Short: "Store files and record an occurrence for each",
	Long: `Stores each file's bytes as a document, deduplicated by content hash,
and records that it was seen at its url (file://<absolute path> unless --url
is given) at the current time.

With --segments, the paragraphs and sentences in the given JSON file
({"paragraphs": [...], "sentences": [[...], ...]}) are stored and linked
to the document as well. --url and --segments need exactly one file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
})

func init() {
	addIngestFlags(ingestCmd, &ingestOpts)
	ingestCmd.Flags().StringVar(&ingestOpts.url, "url", "", "url to record instead of the file path")
	ingestCmd.Flags().StringVar(&ingestOpts.segments, "segments", "", "JSON file with paragraphs and sentences")
	rootCmd.AddCommand(ingestCmd)
}

func addIngestFlags(cmd *cobra.Command, opts *ingestOptions) {
	cmd.Flags().StringVar(&opts.indexerID, "indexer", "", "indexer id (default: ingest.indexer_id or a generated id)")
	cmd.Flags().StringVar(&opts.meta, "meta", "", "free-form metadata stored with the blob")
	cmd.Flags().StringVar(&opts.contentType, "content-type", "", "content type (default: detected)")
	cmd.Flags().StringVar(&opts.language, "language", "", "language of the content")
	cmd.Flags().BoolVar(&opts.noBinary, "no-binary", false, "do not store the original bytes")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	if len(args) > 1 && (ingestOpts.url != "" || ingestOpts.segments != "") {
		return errors.New("--url and --segments need exactly one file")
	}

	opts, err := resolveIngestOptions(ingestOpts)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	for _, path := range args {
		doc, err := ingestFile(ctx, documentService, path, opts)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		if doc == nil {
			cmd.Printf("%s: store busy, gave up after retries\n", path)
			continue
		}
		cmd.Printf("%s: document %d %s (%d occurrences)\n", path, doc.ID, doc.Hash, len(doc.Occurrences))
	}
	return nil
}

// resolveIngestOptions fills the indexer id and binary default from settings.
func resolveIngestOptions(opts ingestOptions) (ingestOptions, error) {
	saveBinary := domain.DefaultSettings().SaveBinary
	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return opts, fmt.Errorf("failed to get settings: %w", err)
		}
		if opts.indexerID == "" {
			opts.indexerID = settings.IndexerID
		}
		saveBinary = settings.SaveBinary
	}
	if opts.indexerID == "" {
		opts.indexerID = uuid.NewString()
	}
	opts.noBinary = opts.noBinary || !saveBinary
	return opts, nil
}

// ingestFile saves one file through the ingestion protocol. It returns
// nil without an error when the store stayed busy for every attempt.
func ingestFile(
	ctx context.Context,
	svc driving.DocumentService,
	path string,
	opts ingestOptions,
) (*domain.DocumentRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	url := opts.url
	if url == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		url = "file://" + filepath.ToSlash(abs)
	}

	contentType := opts.contentType
	if contentType == "" {
		contentType = detectContentType(path, data)
	}

	doc, err := svc.SaveDocument(ctx, driving.SaveDocumentRequest{
		Data:           data,
		IndexerID:      opts.indexerID,
		Path:           url,
		Meta:           opts.meta,
		ContentType:    contentType,
		LastChangeTime: info.ModTime().Unix(),
		SaveBinary:     !opts.noBinary,
	})
	if err != nil || doc == nil || opts.segments == "" {
		return doc, err
	}

	meta := domain.DocumentMeta{
		ID:             doc.ID,
		IndexerID:      opts.indexerID,
		Path:           url,
		Meta:           opts.meta,
		ContentType:    contentType,
		LastChangeTime: info.ModTime().Unix(),
		Language:       opts.language,
	}
	if err := saveSegments(ctx, svc, opts.segments, meta); err != nil {
		return nil, err
	}
	return doc, nil
}

func saveSegments(ctx context.Context, svc driving.DocumentService, path string, meta domain.DocumentMeta) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seg segmentFile
	if err := json.Unmarshal(raw, &seg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	paragraphs, err := svc.SaveParagraphs(ctx, seg.Paragraphs, meta)
	if err != nil {
		return fmt.Errorf("saving paragraphs: %w", err)
	}
	if len(seg.Sentences) == 0 {
		return nil
	}
	if _, err := svc.SaveSentences(ctx, seg.Sentences, meta, paragraphs); err != nil {
		return fmt.Errorf("saving sentences: %w", err)
	}
	return nil
}

func detectContentType(path string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/realshak7781/pdfqa-go/internal/extract"
	"github.com/realshak7781/pdfqa-go/internal/logging"
	"github.com/realshak7781/pdfqa-go/internal/pipeline"
	"github.com/realshak7781/pdfqa-go/internal/rag"
	"github.com/realshak7781/pdfqa-go/internal/store"
)

// NewIngestCmd constructs the `pdfqa ingest` command, which extracts a
// document, builds its index and records it in the metadata store and, when
// configured, the Qdrant mirror.
func NewIngestCmd() *cobra.Command {
	var fetchTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "ingest FILE|URL",
		Short: "Extract and index a document, recording it in the configured stores",
		Long: `Extract the text of a PDF, .txt or .md document, split it into passages,
embed them and publish the index.

The in-memory index lives only for this command, so ingest is useful to
check a document end to end and to populate the persistent side effects:
the metadata store (PDFQA_DB) and the Qdrant mirror (QDRANT_HOST).

An http(s) URL is downloaded into UPLOAD_DIR first.

Examples:
  pdfqa ingest ./report.pdf
  pdfqa ingest https://example.com/paper.pdf
  QDRANT_HOST=localhost pdfqa ingest notes.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			path, err := resolveInput(cmd, args[0], fetchTimeout)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			var publishers []pipeline.Publisher
			if docs := openStore(log); docs != nil {
				defer func() { _ = docs.Close() }()
				publishers = append(publishers, &store.Recorder{Store: docs})
			}
			mirror, err := openQdrant(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			if mirror != nil {
				defer func() { _ = mirror.Close() }()
				publishers = append(publishers, mirror)
			}

			c, err := buildComponents(ctx, log, publishers...)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			doc, err := extract.Document(path)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			log.Info("document extracted",
				slog.String("document_id", doc.ID),
				slog.Int("bytes", len(doc.Text)),
				slog.Int("expected_passages", rag.Count(utf8.RuneCountInString(doc.Text), c.cfg.ChunkSize, c.cfg.ChunkOverlap)),
			)

			res, err := c.controller.Ingest(ctx, doc)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			ok := color.New(color.FgGreen, color.Bold).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d passages\n", ok("ingested"), res.DocumentID, res.PassageCount)
			return nil
		},
	}

	cmd.Flags().DurationVar(&fetchTimeout, "fetch-timeout", 60*time.Second, "Timeout for downloading a URL argument")

	return cmd
}

// resolveInput returns a local path for arg, downloading it when it is a URL.
func resolveInput(cmd *cobra.Command, arg string, timeout time.Duration) (string, error) {
	if extract.IsURL(arg) {
		dir := getEnvOrDefault("UPLOAD_DIR", "uploads")
		return extract.NewFetcher(dir, timeout).Fetch(cmd.Context(), arg)
	}
	if _, err := os.Stat(arg); err != nil {
		return "", err
	}
	if !extract.Supported(arg) {
		return "", fmt.Errorf("unsupported file type %q (want .pdf, .txt, .md)", filepath.Ext(arg))
	}
	return arg, nil
}

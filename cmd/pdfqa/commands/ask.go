package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/realshak7781/pdfqa-go/internal/extract"
	"github.com/realshak7781/pdfqa-go/internal/logging"
	"github.com/realshak7781/pdfqa-go/internal/pipeline"
)

// NewAskCmd constructs the `pdfqa ask` command, which indexes a single
// document in memory and answers one question against it.
func NewAskCmd() *cobra.Command {
	var (
		file         string
		topK         int
		fetchTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ask --file FILE|URL [question]",
		Short: "Answer a question about a document",
		Long: `Index a document in memory and answer one question grounded in it.

The answer is followed by the passages it was built from, with their byte
ranges in the extracted text and their similarity scores.

Nothing is persisted: use 'pdfqa ingest' or 'pdfqa serve' for that.

Examples:
  pdfqa ask --file report.pdf "what was the revenue in Q3?"
  pdfqa ask -f notes.md -k 8 "summarise the action items"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			path, err := resolveInput(cmd, file, fetchTimeout)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			doc, err := extract.Document(path)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			c, err := buildComponents(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			if _, err := c.controller.Ingest(ctx, doc); err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			res, err := c.controller.Answer(ctx, strings.Join(args, " "), topK)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			printAnswer(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Document to answer from (.pdf, .txt, .md or an http(s) URL)")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Passages to retrieve (0 uses RETRIEVAL_TOP_K)")
	cmd.Flags().DurationVar(&fetchTimeout, "fetch-timeout", 60*time.Second, "Timeout for downloading a URL document")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// printAnswer writes the answer and its sources. Colour is dropped
// automatically when w is not a terminal.
func printAnswer(w io.Writer, res *pipeline.AnswerResult) {
	heading := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	score := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintln(w, res.Answer)
	if len(res.Sources) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", heading("Sources"))
	for i, sp := range res.Sources {
		p := sp.Passage
		fmt.Fprintf(w, "  [%d] %s %s %s\n", i+1, p.DocumentID,
			dim(fmt.Sprintf("[%d,%d)", p.Start, p.End)),
			score(fmt.Sprintf("%.3f", sp.Score)))
	}
	if res.Truncation.Truncated() {
		warn := color.New(color.FgYellow).SprintFunc()
		msg := fmt.Sprintf("context truncated: %d passages dropped", res.Truncation.Dropped)
		if res.Truncation.HeadCut {
			msg += ", top passage shortened"
		}
		fmt.Fprintln(w, warn(msg))
	}
}

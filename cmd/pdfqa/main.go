// Command pdfqa answers questions about an uploaded document. It provides a
// CLI (via Cobra) for one-shot ingestion and questions, and an HTTP server
// for upload-then-ask use.
package main

import (
	"fmt"
	"os"

	"github.com/realshak7781/pdfqa-go/cmd/pdfqa/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

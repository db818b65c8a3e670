// Package extract turns uploaded files into rag.Documents. PDFs are read page
// by page with ledongthuc/pdf; .txt, .md and .text files are read as UTF-8.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/realshak7781/pdfqa-go/internal/rag"
)

// Supported reports whether name has an extension Text can read.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt", ".md", ".text":
		return true
	}
	return false
}

// Text returns the plain text of the file at path. Every failure is an
// ExtractionError.
func Text(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return pdfText(path)
	case ".txt", ".md", ".text":
		return plainText(path)
	default:
		return "", rag.Errorf(rag.KindExtractionError, "extract.text", "unsupported file type %q", filepath.Ext(path))
	}
}

// Document extracts path and names the result after the file's base name.
func Document(path string) (rag.Document, error) {
	text, err := Text(path)
	if err != nil {
		return rag.Document{}, err
	}
	return rag.Document{ID: filepath.Base(path), Text: text}, nil
}

func plainText(path string) (string, error) {
	const op = "extract.text"
	b, err := os.ReadFile(path)
	if err != nil {
		return "", rag.NewError(rag.KindExtractionError, op, err)
	}
	if !utf8.Valid(b) {
		return "", rag.Errorf(rag.KindExtractionError, op, "%s is not valid UTF-8", filepath.Base(path))
	}
	return string(b), nil
}

// pdfText concatenates the plain text of every page in order, ending each
// page with a newline so words never join across a page break. The pdf
// library panics on some malformed inputs; those are reported as errors.
func pdfText(path string) (text string, err error) {
	const op = "extract.pdf"
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = rag.Errorf(rag.KindExtractionError, op, "malformed PDF %s: %v", filepath.Base(path), r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", rag.NewError(rag.KindExtractionError, op, err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", &rag.Error{Kind: rag.KindExtractionError, Op: op, Msg: fmt.Sprintf("page %d", i), Err: err}
		}
		b.WriteString(content)
		if content != "" && !strings.HasSuffix(content, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// SanitizeFilename reduces an uploaded name to a safe base name: directory
// parts are dropped and spaces become underscores. It returns "" when
// nothing usable is left.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	switch name {
	case "", ".", "..", "/":
		return ""
	}
	return name
}

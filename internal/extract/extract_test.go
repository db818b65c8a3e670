package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/realshak7781/pdfqa-go/internal/rag"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestDocument_PlainText(t *testing.T) {
	t.Parallel()
	p := writeFile(t, "notes.md", []byte("# Title\n\nThe cat sat."))
	doc, err := Document(p)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc.ID != "notes.md" || doc.Text != "# Title\n\nThe cat sat." {
		t.Errorf("doc = %+v", doc)
	}
}

// buildPDF assembles an uncompressed PDF with one page per entry in ops.
// Each entry is the text-showing operators for that page, drawn in
// Helvetica with WinAnsiEncoding.
func buildPDF(ops ...string) []byte {
	n := len(ops)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled below
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	kids := make([]string, n)
	for i, op := range ops {
		pageObj := 4 + 2*i
		kids[i] = fmt.Sprintf("%d 0 R", pageObj)
		stream := "BT /F1 12 Tf 72 720 Td " + op + " ET"
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", pageObj+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n)

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

func TestDocument_PDFPagesStaySeparated(t *testing.T) {
	t.Parallel()
	p := writeFile(t, "two pages.pdf", buildPDF(
		"(Hello page one.) Tj",
		"(Second page text.) Tj",
	))
	doc, err := Document(p)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc.ID != "two pages.pdf" {
		t.Errorf("ID = %q, want %q", doc.ID, "two pages.pdf")
	}
	if want := "Hello page one.\nSecond page text.\n"; doc.Text != want {
		t.Errorf("Text = %q, want %q", doc.Text, want)
	}
}

func TestText_PDFPageEndingInNewline(t *testing.T) {
	t.Parallel()
	p := writeFile(t, "lines.pdf", buildPDF(
		"(first line) Tj T*",
		"(next page) Tj",
	))
	text, err := Text(p)
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if want := "first line\nnext page\n"; text != want {
		t.Errorf("Text = %q, want %q", text, want)
	}
}

func TestText_Failures(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		path string
	}{
		{"unsupported extension", writeFile(t, "sheet.xlsx", []byte("x"))},
		{"invalid utf-8", writeFile(t, "bad.txt", []byte{0xff, 0xfe, 0x00})},
		{"missing file", filepath.Join(t.TempDir(), "absent.txt")},
		{"corrupt pdf", writeFile(t, "broken.pdf", []byte("%PDF-1.4 this is not really a pdf"))},
		{"empty pdf", writeFile(t, "empty.pdf", nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Text(tc.path)
			if !errors.Is(err, rag.ErrExtraction) {
				t.Errorf("want ErrExtraction, got %v", err)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"my report.pdf":           "my_report.pdf",
		"../../etc/passwd":        "passwd",
		`C:\Users\me\a file.pdf`:  "a_file.pdf",
		"..":                      "",
		"":                        "",
		"tab\tname.txt":           "tabname.txt",
		"nested/dir/Q3 notes.txt": "Q3_notes.txt",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/docs/guide.txt":
			_, _ = w.Write([]byte("fetched guide text"))
		case "/report":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("report body"))
		case "/big.txt":
			_, _ = w.Write(make([]byte, 64))
		case "/image":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(t.TempDir(), 5*time.Second)
	ctx := context.Background()

	p, err := f.Fetch(ctx, srv.URL+"/docs/guide.txt")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	doc, err := Document(p)
	if err != nil || doc.ID != "guide.txt" || doc.Text != "fetched guide text" {
		t.Errorf("doc = %+v, err = %v", doc, err)
	}

	p, err = f.Fetch(ctx, srv.URL+"/report")
	if err != nil {
		t.Fatalf("fetch by content type: %v", err)
	}
	if filepath.Base(p) != "report.txt" {
		t.Errorf("name = %q, want report.txt", filepath.Base(p))
	}

	for _, path := range []string{"/missing.pdf", "/image"} {
		if _, err := f.Fetch(ctx, srv.URL+path); !errors.Is(err, rag.ErrExtraction) {
			t.Errorf("%s: want ErrExtraction, got %v", path, err)
		}
	}

	small := NewFetcher(t.TempDir(), time.Second)
	small.MaxBytes = 10
	if _, err := small.Fetch(ctx, srv.URL+"/big.txt"); !errors.Is(err, rag.ErrExtraction) {
		t.Errorf("oversized: want ErrExtraction, got %v", err)
	}

	if IsURL("/tmp/file.pdf") || !IsURL("https://example.com/a.pdf") {
		t.Error("IsURL misclassified input")
	}
}

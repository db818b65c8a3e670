package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/realshak7781/pdfqa-go/internal/rag"
)

// Fetcher downloads remote documents into a local directory so they can be
// extracted like uploads.
type Fetcher struct {
	// Dir is where downloaded files are written.
	Dir string
	// MaxBytes caps a download (default 32 MiB).
	MaxBytes int64
	// UserAgent is sent with every request.
	UserAgent string

	client *http.Client
}

// NewFetcher returns a Fetcher writing into dir with the given timeout.
func NewFetcher(dir string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		Dir:       dir,
		MaxBytes:  32 << 20,
		UserAgent: "pdfqa-go/1.0 (document fetch)",
		client:    &http.Client{Timeout: timeout},
	}
}

// IsURL reports whether s looks like an http(s) URL rather than a path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch downloads rawURL and returns the local path. The file name comes
// from the URL path, with ".pdf" assumed when the server says so and the
// name has no supported extension.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	const op = "extract.fetch"
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", rag.Errorf(rag.KindExtractionError, op, "invalid URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", rag.NewError(rag.KindExtractionError, op, err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "application/pdf, text/plain, text/markdown")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", rag.NewError(rag.KindExtractionError, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", rag.Errorf(rag.KindExtractionError, op, "unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	name := SanitizeFilename(path.Base(u.Path))
	if name == "" {
		name = "download"
	}
	if !Supported(name) {
		switch ct := resp.Header.Get("Content-Type"); {
		case strings.HasPrefix(ct, "application/pdf"):
			name += ".pdf"
		case strings.HasPrefix(ct, "text/"):
			name += ".txt"
		default:
			return "", rag.Errorf(rag.KindExtractionError, op, "unsupported content type %q", ct)
		}
	}

	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", fmt.Errorf("extract: create %s: %w", f.Dir, err)
	}
	dst := filepath.Join(f.Dir, name)
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("extract: create %s: %w", dst, err)
	}
	n, copyErr := io.Copy(out, io.LimitReader(resp.Body, f.MaxBytes+1))
	closeErr := out.Close()
	switch {
	case copyErr != nil:
		return "", rag.NewError(rag.KindExtractionError, op, copyErr)
	case closeErr != nil:
		return "", fmt.Errorf("extract: write %s: %w", dst, closeErr)
	case n > f.MaxBytes:
		_ = os.Remove(dst)
		return "", rag.Errorf(rag.KindExtractionError, op, "%s exceeds %d bytes", rawURL, f.MaxBytes)
	}
	return dst, nil
}

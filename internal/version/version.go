// Package version holds build-time version information for the pdfqa binary.
// The variables in this package are populated at build time via -ldflags:
//
//	go build -ldflags="-X github.com/realshak7781/pdfqa-go/internal/version.Version=v0.3.0 \
//	                    -X github.com/realshak7781/pdfqa-go/internal/version.Commit=abc1234 \
//	                    -X github.com/realshak7781/pdfqa-go/internal/version.BuildDate=2026-01-01"
//
// When built without ldflags (e.g. `go run`), the values fall back to
// readable defaults so the binary is always usable.
package version

import "fmt"

var (
	// Version is the semantic version of the binary. Defaults to "dev".
	Version = "dev"
	// Commit is the short git SHA the binary was built from.
	Commit = "unknown"
	// BuildDate is the UTC build date (RFC3339).
	BuildDate = "unknown"
)

// String formats the build information as printed by `pdfqa version`.
func String() string {
	return fmt.Sprintf("pdfqa %s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

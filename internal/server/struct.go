package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/realshak7781/pdfqa-go/internal/pipeline"
	"github.com/realshak7781/pdfqa-go/internal/rag"
	"github.com/realshak7781/pdfqa-go/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8000).
	Port int
	// ReadTimeout is the maximum duration for reading the request, including
	// the multipart upload body.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. It must
	// cover a full ingest, so it defaults to the pipeline's ingest timeout.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// UploadDir is where uploaded files are written before extraction.
	// Defaults to "uploads".
	UploadDir string
	// MaxUploadBytes caps the multipart body size. Defaults to 32 MiB.
	MaxUploadBytes int64
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on upload and
	// ask (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on upload, ask and document routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry receives the server's collectors. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs GET /metrics. Defaults to prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// pipelineAPI is the slice of *pipeline.Controller the handlers use.
// Tests inject a fake.
type pipelineAPI interface {
	Ingest(ctx context.Context, doc rag.Document) (*pipeline.IngestResult, error)
	Answer(ctx context.Context, question string, topK int) (*pipeline.AnswerResult, error)
	State() pipeline.State
	Generation() uint64
}

// documentLister is the read side of the metadata store.
type documentLister interface {
	Recent(ctx context.Context, n int) ([]store.Record, error)
	Get(ctx context.Context, id int64) (*store.Record, error)
}

// Server is the HTTP front end of the question answering pipeline.
type Server struct {
	// pipeline ingests documents and answers questions.
	pipeline pipelineAPI
	// docs lists stored document metadata. Nil disables /api/documents.
	docs documentLister
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus collectors for this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// uploadResponse is the JSON response for POST /upload/.
type uploadResponse struct {
	Filename     string `json:"filename"`
	Message      string `json:"message"`
	PassageCount int    `json:"passage_count"`
	Generation   uint64 `json:"generation"`
}

// askRequest is the JSON body for POST /api/ask.
type askRequest struct {
	// Question is the natural language question.
	Question string `json:"question"`
	// TopK overrides the configured number of retrieved passages when > 0.
	TopK int `json:"top_k,omitempty"`
}

// sourceJSON is one retrieved passage reference in an ask response.
type sourceJSON struct {
	DocumentID string  `json:"document_id"`
	Index      int     `json:"index"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Score      float32 `json:"score"`
}

// askResponse is the JSON response for POST /api/ask.
type askResponse struct {
	Answer            string       `json:"answer"`
	Sources           []sourceJSON `json:"sources"`
	TruncatedPassages int          `json:"truncated_passages"`
	Generation        uint64       `json:"generation"`
}

// documentJSON is one stored document in /api/documents responses.
// Content is only set on the single-document route.
type documentJSON struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	Bytes        int       `json:"bytes"`
	PassageCount int       `json:"passage_count"`
	CreatedAt    time.Time `json:"created_at"`
	Content      string    `json:"content,omitempty"`
}

// errorBody is the JSON error envelope shared by every handler.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

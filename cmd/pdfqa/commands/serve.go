package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/realshak7781/pdfqa-go/internal/logging"
	"github.com/realshak7781/pdfqa-go/internal/pipeline"
	"github.com/realshak7781/pdfqa-go/internal/server"
	"github.com/realshak7781/pdfqa-go/internal/store"
	"github.com/realshak7781/pdfqa-go/internal/tracing"
)

// NewServeCmd constructs the `pdfqa serve` command, which starts the HTTP
// server for upload-then-ask use.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the pdfqa HTTP server",
		Long: `Start the pdfqa HTTP server.

Routes:
  GET  /                     banner
  POST /upload/              multipart field "file" (.pdf, .txt, .md)
  POST /api/ask              {"question": "...", "top_k": 3}
  GET  /api/documents        recently uploaded documents
  GET  /api/documents/{id}   one document including its text
  GET  /api/health           liveness
  GET  /api/ready            readiness (embedder, qdrant, database)
  GET  /metrics              Prometheus metrics

Each upload replaces the document questions are answered against.

Examples:
  pdfqa serve
  pdfqa serve --port 9090
  EMBEDDING_PROVIDER=hash MODEL_PROVIDER=ollama pdfqa serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Flag defaults are resolved here, after .env and YAML are applied.
			if !cmd.Flags().Changed("host") {
				host = getEnvOrDefault("PDFQA_HOST", "127.0.0.1")
			}
			if !cmd.Flags().Changed("port") {
				port = getEnvInt("PDFQA_PORT", 8000)
			}

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Langfuse tracing is opt-in; a no-op if keys are absent.
			flush, ok := tracing.Install(tracing.ConfigFromEnv())
			defer flush()
			if ok {
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY or LANGFUSE_SECRET_KEY not set"))
			}

			var (
				publishers []pipeline.Publisher
				pingers    []server.Pinger
				docs       store.DocumentStore
			)

			if docs = openStore(log); docs != nil {
				defer func() { _ = docs.Close() }()
				publishers = append(publishers, &store.Recorder{Store: docs})
				pingers = append(pingers, server.NewStorePinger(docs))
			}

			mirror, err := openQdrant(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			if mirror != nil {
				defer func() { _ = mirror.Close() }()
				publishers = append(publishers, mirror)
				pingers = append(pingers, mirror)
			}

			c, err := buildComponents(ctx, log, publishers...)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			pingers = append([]server.Pinger{server.NewEmbedderPinger(c.embedder, c.backend)}, pingers...)

			srvCfg := &server.Config{
				Host:      host,
				Port:      port,
				Logger:    log,
				Pingers:   pingers,
				APIKey:    os.Getenv("PDFQA_API_KEY"),
				UploadDir: getEnvOrDefault("UPLOAD_DIR", "uploads"),
				RateLimit: getEnvFloat("PDFQA_RATE_LIMIT", 0),
				RateBurst: getEnvInt("PDFQA_RATE_BURST", 0),
				// Uploads answer after the whole build, so the write deadline
				// must outlast the ingest timeout.
				WriteTimeout: c.cfg.IngestTimeout + c.cfg.PublishTimeout*2,
			}

			// A nil docs store leaves /api/documents unregistered.
			srv, err := server.New(c.controller, docs, srvCfg)
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to (env PDFQA_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 8000, "TCP port to listen on (env PDFQA_PORT)")

	return cmd
}

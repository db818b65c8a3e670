package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/realshak7781/pdfqa-go/internal/extract"
	"github.com/realshak7781/pdfqa-go/internal/logging"
	"github.com/realshak7781/pdfqa-go/internal/rag"
	"github.com/realshak7781/pdfqa-go/internal/store"
)

const (
	defaultDocumentLimit = 20
	maxDocumentLimit     = 100
)

// handleRoot handles GET / with a static banner.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "PDF Q&A API is running"})
}

// handleUpload handles POST /upload/. The multipart field "file" is saved
// under the upload directory with a sanitized name, extracted, and ingested.
// The response is sent once the new index is current.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.upload"
	log := logging.FromContext(r.Context())
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.metrics.ingestTotal.WithLabelValues("rejected").Inc()
		if isRequestTooLarge(err) {
			writeJSON(w, r, http.StatusRequestEntityTooLarge, errorBody{Error: errorDetail{
				Kind:    string(rag.KindInvalidParameter),
				Message: fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes),
			}})
			return
		}
		badRequest(w, r, op, `multipart field "file" is required`)
		return
	}
	defer file.Close()

	name := extract.SanitizeFilename(header.Filename)
	if name == "" {
		s.metrics.ingestTotal.WithLabelValues("rejected").Inc()
		badRequest(w, r, op, "filename is empty after sanitizing")
		return
	}
	if !extract.Supported(name) {
		s.metrics.ingestTotal.WithLabelValues("rejected").Inc()
		writeError(w, r, rag.Errorf(rag.KindExtractionError, op, "unsupported file type %q", filepath.Ext(name)))
		return
	}

	// The upload lands under a temporary name and replaces UploadDir/name
	// only once its index is current, so a rejected or failed upload never
	// overwrites the file behind the current index.
	tmp, err := s.saveUpload(name, file)
	if err != nil {
		s.metrics.ingestTotal.WithLabelValues("error").Inc()
		writeError(w, r, err)
		return
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp)
		}
	}()

	doc, err := extract.Document(tmp)
	if err != nil {
		s.metrics.ingestTotal.WithLabelValues(outcomeOf(err)).Inc()
		writeError(w, r, err)
		return
	}
	doc.ID = name

	res, err := s.pipeline.Ingest(r.Context(), doc)
	s.metrics.ingestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ingestTotal.WithLabelValues(outcomeOf(err)).Inc()
		writeError(w, r, err)
		return
	}

	path := filepath.Join(s.cfg.UploadDir, name)
	if err := os.Rename(tmp, path); err != nil {
		log.Warn("upload: could not move file into place", slog.String("path", path), slog.Any("error", err))
	} else {
		committed = true
		log.Info("upload saved", slog.String("filename", name), slog.String("path", path))
	}
	s.metrics.ingestTotal.WithLabelValues("ok").Inc()
	s.metrics.ingestPassages.Observe(float64(res.PassageCount))
	s.metrics.indexGeneration.Set(float64(res.Generation))

	writeJSON(w, r, http.StatusOK, uploadResponse{
		Filename:     name,
		Message:      "File uploaded and processed successfully",
		PassageCount: res.PassageCount,
		Generation:   res.Generation,
	})
}

// saveUpload copies src to a temporary file in UploadDir that keeps name's
// extension, and returns its path.
func (s *Server) saveUpload(name string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("server: create upload dir: %w", err)
	}
	dst, err := os.CreateTemp(s.cfg.UploadDir, ".upload-*-"+name)
	if err != nil {
		return "", fmt.Errorf("server: create temp file for %s: %w", name, err)
	}
	path := dst.Name()
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		if isRequestTooLarge(err) {
			return "", rag.Errorf(rag.KindInvalidParameter, "server.upload", "upload exceeds %d bytes", s.cfg.MaxUploadBytes)
		}
		return "", fmt.Errorf("server: write %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("server: close %s: %w", name, err)
	}
	return path, nil
}

// handleAsk handles POST /api/ask.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	const op = "server.ask"
	start := time.Now()

	var req askRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.metrics.answerTotal.WithLabelValues("rejected").Inc()
		badRequest(w, r, op, "invalid request body")
		return
	}
	if req.TopK < 0 {
		s.metrics.answerTotal.WithLabelValues("rejected").Inc()
		badRequest(w, r, op, "top_k must not be negative")
		return
	}

	res, err := s.pipeline.Answer(r.Context(), req.Question, req.TopK)
	outcome := "ok"
	if err != nil {
		outcome = outcomeOf(err)
	}
	s.metrics.answerTotal.WithLabelValues(outcome).Inc()
	s.metrics.answerDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.Truncation.Truncated() {
		s.metrics.answerTruncated.Inc()
	}

	sources := make([]sourceJSON, len(res.Sources))
	for i, sp := range res.Sources {
		sources[i] = sourceJSON{
			DocumentID: sp.Passage.DocumentID,
			Index:      sp.Passage.Index,
			Start:      sp.Passage.Start,
			End:        sp.Passage.End,
			Score:      sp.Score,
		}
	}
	writeJSON(w, r, http.StatusOK, askResponse{
		Answer:            res.Answer,
		Sources:           sources,
		TruncatedPassages: res.Truncation.Dropped,
		Generation:        res.Generation,
	})
}

// handleDocuments handles GET /api/documents?limit=N.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	const op = "server.documents"
	limit := defaultDocumentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(w, r, op, "limit must be a positive integer")
			return
		}
		limit = min(n, maxDocumentLimit)
	}

	recs, err := s.docs.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]documentJSON, len(recs))
	for i, rec := range recs {
		out[i] = toDocumentJSON(rec)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"documents": out})
}

// handleDocument handles GET /api/documents/{id}, including the content.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	const op = "server.document"
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, r, op, "id must be a positive integer")
		return
	}
	rec, err := s.docs.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, r, http.StatusNotFound, errorBody{Error: errorDetail{Kind: "not_found", Message: err.Error()}})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc := toDocumentJSON(*rec)
	doc.Content = rec.Content
	writeJSON(w, r, http.StatusOK, doc)
}

func toDocumentJSON(rec store.Record) documentJSON {
	return documentJSON{
		ID:           rec.ID,
		Filename:     rec.Filename,
		Bytes:        rec.Bytes,
		PassageCount: rec.PassageCount,
		CreatedAt:    rec.CreatedAt.UTC(),
	}
}

// outcomeOf turns an error into a metric label.
func outcomeOf(err error) string {
	if kind := rag.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/realshak7781/pdfqa-go/internal/logging"
	"github.com/realshak7781/pdfqa-go/internal/rag"
)

// kindInternal labels failures that carry no rag.Kind.
const kindInternal = "internal"

// statusFor maps an error kind to the HTTP status returned to clients.
func statusFor(kind rag.Kind) int {
	switch kind {
	case rag.KindInvalidParameter, rag.KindEmptyInput, rag.KindNoPassages, rag.KindExtractionError:
		return http.StatusBadRequest
	case rag.KindNoIndexAvailable, rag.KindBuildInProgress:
		return http.StatusConflict
	case rag.KindEmbeddingUnavailable, rag.KindGenerationUnavailable:
		return http.StatusBadGateway
	case rag.KindGenerationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as the JSON error envelope. Server-side failures are
// logged at error level, client mistakes at info.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := rag.KindOf(err)
	label := string(kind)
	if kind == "" {
		label = kindInternal
	}
	status := statusFor(kind)

	log := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", slog.String("kind", label), slog.Any("error", err))
	} else {
		log.Info("request rejected", slog.String("kind", label), slog.String("error", err.Error()))
	}

	writeJSON(w, r, status, errorBody{Error: errorDetail{Kind: label, Message: err.Error()}})
}

// badRequest reports a malformed request as an InvalidParameter error.
func badRequest(w http.ResponseWriter, r *http.Request, op, msg string) {
	writeError(w, r, rag.Errorf(rag.KindInvalidParameter, op, "%s", msg))
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("response encode error", slog.Any("error", err))
	}
}

// isRequestTooLarge reports whether err came from http.MaxBytesReader.
func isRequestTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/db-frog/folklore-archive/internal/domain"
	"github.com/db-frog/folklore-archive/internal/logger"
)

// Error codes returned in the "code" field of error responses.
const (
	CodeBadRequest            = "bad_request"
	CodeInvalidFilter         = "invalid_filter"
	CodeMultipleSearchStages  = "multiple_search_stages"
	CodeUnknownValue          = "unknown_normalized_value"
	CodeConflictingBrowseMode = "conflicting_browse_mode"
	CodeInvalidID             = "invalid_id"
	CodeInvalidFolderPath     = "invalid_folder_path"
	CodeNotFound              = "not_found"
	CodeUnauthenticated       = "unauthenticated"
	CodeEmbeddingFailure      = "embedding_failure"
	CodeObjectStorage         = "object_storage_error"
	CodeStoreUnavailable      = "store_unavailable"
	CodeInternal              = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

var errorHandlers = []errorHandler{
	unknownValueHandler,
	sentinelHandler(domain.ErrInvalidFilterSyntax, http.StatusBadRequest, CodeInvalidFilter),
	sentinelHandler(domain.ErrMultipleSearchStages, http.StatusBadRequest, CodeMultipleSearchStages),
	sentinelHandler(domain.ErrConflictingBrowseMode, http.StatusBadRequest, CodeConflictingBrowseMode),
	sentinelHandler(domain.ErrInvalidID, http.StatusBadRequest, CodeInvalidID),
	sentinelHandler(domain.ErrInvalidFolderPath, http.StatusBadRequest, CodeInvalidFolderPath),
	sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	sentinelHandler(domain.ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthenticated),
	sentinelHandler(domain.ErrEmbeddingFailure, http.StatusBadGateway, CodeEmbeddingFailure),
	sentinelHandler(domain.ErrObjectStorage, http.StatusBadGateway, CodeObjectStorage),
	sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, CodeStoreUnavailable),
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Only the sentinel's own text reaches the client.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// unknownValueHandler names the offending field and value; both came from the request.
func unknownValueHandler(w http.ResponseWriter, err error) bool {
	var uve *domain.UnknownValueError
	if !errors.As(err, &uve) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeUnknownValue, uve.Error())
	return true
}

// clientStatus reports whether status is a 4xx.
func clientStatus(status int) bool {
	return status >= 400 && status < 500
}

// handleDomainError maps err onto a JSON error response.
// Filter syntax errors keep their detail since the filter text came from the caller.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	if errors.Is(err, domain.ErrInvalidFilterSyntax) {
		log.Warn("Invalid filter", zap.Error(err))
		writeError(w, http.StatusBadRequest, CodeInvalidFilter, err.Error())
		return
	}

	rec := &statusRecorder{ResponseWriter: w}
	for _, h := range errorHandlers {
		if h(rec, err) {
			if clientStatus(rec.status) {
				log.Warn("Request rejected", zap.Int("status", rec.status), zap.Error(err))
			} else {
				log.Error("Dependency failure", zap.Int("status", rec.status), zap.Error(err))
			}
			return
		}
	}
	log.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

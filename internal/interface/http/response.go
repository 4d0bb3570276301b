package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ingvionio/fullstack/internal/application/command"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/internal/infrastructure/auth"
	"github.com/ingvionio/fullstack/internal/infrastructure/storage"
	"github.com/ingvionio/fullstack/internal/interface/http/handlers"
	"github.com/ingvionio/fullstack/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse is the envelope of every API response.
type JSONResponse struct {
	Success bool          `json:"success"`
	Data    any           `json:"data,omitempty"`
	Error   *APIError     `json:"error,omitempty"`
	Meta    *ResponseMeta `json:"meta,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// ResponseMeta carries response metadata.
type ResponseMeta struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	RequestID string    `json:"request_id,omitempty"`
	Count     *int      `json:"count,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// Error codes.
const (
	codeNotFound       = "not_found"
	codeConflict       = "conflict"
	codeValidation     = "validation_error"
	codeUnauthorized   = "unauthorized"
	codeForbidden      = "forbidden"
	codeTooLarge       = "payload_too_large"
	codeInternal       = "internal_error"
	codeBadRequest     = "bad_request"
	codeMethodNotAllow = "method_not_allowed"
	codeTooMany        = "too_many_requests"
)

func newMeta(r *http.Request) *ResponseMeta {
	return &ResponseMeta{
		Timestamp: time.Now().UTC(),
		Version:   apiVersion,
		RequestID: handlers.RequestIDFromContext(r.Context()),
	}
}

func writeEnvelope(w http.ResponseWriter, status int, body JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeJSON writes a successful response.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeEnvelope(w, status, JSONResponse{Success: true, Data: data, Meta: newMeta(r)})
}

// writeList writes a list with its length in meta.
func writeList[T any](w http.ResponseWriter, r *http.Request, items []T) {
	if items == nil {
		items = []T{}
	}
	meta := newMeta(r)
	n := len(items)
	meta.Count = &n
	writeEnvelope(w, http.StatusOK, JSONResponse{Success: true, Data: items, Meta: meta})
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeJSONError writes an error response.
func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string, details ...string) {
	writeEnvelope(w, status, JSONResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Details: details},
		Meta:    newMeta(r),
	})
}

// writeError maps err to a status code. Unknown errors are logged and
// reported as 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err),
		)
		writeJSONError(w, r, status, code, "An unexpected error occurred")
		return
	}
	writeJSONError(w, r, status, code, publicMessage(err))
}

func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case shared.IsNotFound(err):
		return http.StatusNotFound, codeNotFound
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, codeConflict
	case shared.IsUnauthorized(err), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, codeUnauthorized
	case errors.Is(err, storage.ErrTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, codeTooLarge
	case shared.IsValidation(err), errors.Is(err, storage.ErrEmptyFile):
		return http.StatusBadRequest, codeValidation
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func publicMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, _ error) {
	writeJSONError(w, r, http.StatusUnauthorized, codeUnauthorized, "Missing, invalid or expired access token")
}

func writeTooManyRequests(w http.ResponseWriter, r *http.Request, _ time.Duration) {
	writeJSONError(w, r, http.StatusTooManyRequests, codeTooMany, "Too many login attempts, try again later")
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// paramError is a malformed path or query parameter.
type paramError struct {
	name string
}

func (e *paramError) Error() string        { return "invalid parameter " + e.name }
func (e *paramError) Is(target error) bool { return target == shared.ErrInvalidInput }

// pathID parses a positive integer path variable.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, &paramError{name: name}
	}
	return id, nil
}

// queryInt64 parses an optional query parameter.
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &paramError{name: name}
	}
	return &v, nil
}

// queryInt parses an optional query parameter with a default.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name}
	}
	return v, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &paramError{name: name}
	}
	return v, nil
}

// currentUser returns the authenticated user id, if any.
func currentUser(r *http.Request) (int64, bool) {
	return handlers.UserIDFromContext(r.Context())
}

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

// readUploads parses a multipart body and opens up to maxFiles files of the
// given form field. The returned cleanup closes them and removes
// temporary files.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request, field string, maxFiles int) ([]command.Upload, func(), error) {
	if s.config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes*int64(maxFiles)+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, err
		}
		return nil, nil, shared.ValidationError("upload", "Parse", "expected multipart/form-data with field %q", field)
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		_ = r.MultipartForm.RemoveAll()
		return nil, nil, shared.ValidationError("upload", "Parse", "no files in field %q", field)
	}
	if len(headers) > maxFiles {
		_ = r.MultipartForm.RemoveAll()
		return nil, nil, shared.ValidationError("upload", "Parse", "at most %d files per request", maxFiles)
	}

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
		_ = r.MultipartForm.RemoveAll()
	}

	uploads := make([]command.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		uploads = append(uploads, command.Upload{Name: fh.Filename, Body: f})
	}
	return uploads, cleanup, nil
}

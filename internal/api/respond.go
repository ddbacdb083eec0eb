// Package api implements the JSON HTTP surface of the notes service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kuitang/notes-api/internal/db"
	"github.com/kuitang/notes-api/internal/errs"
	"github.com/kuitang/notes-api/internal/logutil"
	"github.com/kuitang/notes-api/internal/obs"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

const (
	msgInvalidJSON = "Invalid JSON body"
	msgInternal    = "internal error"
	msgConflict    = "Resource already exists"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details []errs.FieldError `json:"details,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps err to its status and writes the error body. Internal
// errors are logged with the cause and reported without it. A unique
// constraint failure that reached here untyped is a 409.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errs.CodeOf(err) == errs.Internal && db.IsUniqueViolation(err) {
		err = errs.Wrap(errs.AlreadyExists, msgConflict, err)
	}
	code := errs.CodeOf(err)
	status := errs.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		attrs := append(logutil.RequestAttrs(r), "status", status, "error", err)
		obs.From(r.Context()).Error("request_failed", attrs...)
	}
	writeJSON(w, status, ErrorResponse{
		Error:   errs.MessageOf(err),
		Details: errs.FieldsOf(err),
	})
}

// decodeFields reads a JSON object body into its raw fields so each one can
// be validated separately.
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errs.New(errs.InvalidArgument, "Request body too large")
		}
		return nil, errs.New(errs.InvalidArgument, msgInvalidJSON)
	}
	if fields == nil {
		return nil, errs.New(errs.InvalidArgument, msgInvalidJSON)
	}
	return fields, nil
}

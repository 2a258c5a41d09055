// Package handlers implements the HTTP handlers for the conversion API.
package handlers

import (
	"encoding/json"
	stdliberrors "errors"
	"net/http"

	"github.com/turtacn/ClinFHIR-Bridge/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, statusCode int, code errors.ErrorCode, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Code:    string(code),
		Message: message,
	})
}

// writeAppError maps application-level errors to HTTP responses.  Client
// errors surface their own message; anything mapping to a 5xx is replaced by
// the code's canonical message so wrapped internals never reach the caller.
func writeAppError(w http.ResponseWriter, err error) {
	appErr := errors.AsAppError(err)
	if appErr == nil {
		writeError(w, http.StatusInternalServerError, errors.ErrCodeInternal,
			errors.DefaultMessageForCode(errors.ErrCodeInternal))
		return
	}

	status := errors.HTTPStatusForCode(appErr.Code)
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		message = errors.DefaultMessageForCode(appErr.Code)
	}
	writeError(w, status, appErr.Code, message)
}

// decodeJSON decodes the request body into dst, capping the body at maxBytes.
// A body over the cap yields ErrCodePayloadTooLarge; any other decode failure
// yields ErrCodeMalformedPayload.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, maxBytes int64) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if stdliberrors.As(err, &maxErr) {
			return errors.Newf(errors.ErrCodePayloadTooLarge,
				"request body exceeds %d bytes", maxErr.Limit)
		}
		return errors.Wrap(err, errors.ErrCodeMalformedPayload, "request body is not valid JSON")
	}
	return nil
}

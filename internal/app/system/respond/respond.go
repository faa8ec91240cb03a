// internal/app/system/respond/respond.go
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"go.uber.org/zap"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// JSON writes payload with status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Status writes an error body with an explicit status and code.
func Status(w http.ResponseWriter, status int, code, msg string) {
	JSON(w, status, ErrorBody{Error: msg, Code: code})
}

// Error maps err to a status through apperr. Unclassified errors are logged
// and reported as a generic 500.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		status := apperr.HTTPStatus(ae.Kind)
		if status >= http.StatusInternalServerError && log != nil {
			log.Warn("request failed", zap.String("code", ae.Code), zap.Error(err))
		}
		JSON(w, status, ErrorBody{Error: ae.Message, Code: ae.Code})
		return
	}
	if log != nil {
		log.Error("unhandled error", zap.Error(err))
	}
	Status(w, http.StatusInternalServerError, "internal", "internal server error")
}

// Decode reads a JSON body into dst. Unknown fields are rejected.
// Malformed bodies come back as InvalidInput.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.InvalidInput("request body is empty")
		}
		return apperr.InvalidInput("malformed JSON body: " + err.Error())
	}
	return nil
}

// Package handlers implements the HTTP handlers of the ingestion API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/turtacn/ArchIntel/pkg/errors"
	"github.com/turtacn/ArchIntel/pkg/types/common"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeOK wraps data in the standard success envelope.
func writeOK(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSON(w, statusCode, common.OK(data))
}

// writeAppError maps an application error to its HTTP status and writes the
// standard failure envelope.  Unclassified errors are masked as internal.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = errors.DefaultMessageForCode(errors.ErrCodeInternal)
	}
	writeJSON(w, status, common.Fail[interface{}](string(code), message))
}

// parseLimit reads the optional limit query parameter, capped at max.
func parseLimit(r *http.Request, def, max int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

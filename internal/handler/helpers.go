package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/zachlagden/zlapi/internal/model"
)

// writeEnvelope serializes env as JSON with the given transport status.
// Every JSON-returning handler funnels through here so the envelope shape
// stays uniform; note the transport status and env.Status may legitimately
// differ (the "no track playing" response).
func writeEnvelope(w http.ResponseWriter, transport int, env model.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(transport)
	json.NewEncoder(w).Encode(env)
}

// writeSuccess writes the standard 200 envelope around data.
func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeEnvelope(w, http.StatusOK, model.Envelope{
		OK:      true,
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// writeValidationError rejects a request before any collaborator is
// invoked.
func writeValidationError(w http.ResponseWriter, message string) {
	writeEnvelope(w, http.StatusBadRequest, model.Envelope{
		OK:      false,
		Status:  http.StatusBadRequest,
		Message: message,
	})
}

// writeValidationErrorDetail is writeValidationError with diagnostic text
// in the error field.
func writeValidationErrorDetail(w http.ResponseWriter, message string, err error) {
	writeEnvelope(w, http.StatusBadRequest, model.Envelope{
		OK:      false,
		Status:  http.StatusBadRequest,
		Message: message,
		Error:   err.Error(),
	})
}

// writeInternalError converts a processing failure into the 500 envelope.
// Nothing propagates past the handler boundary as an unhandled fault.
func writeInternalError(w http.ResponseWriter, message string, err error) {
	writeEnvelope(w, http.StatusInternalServerError, model.Envelope{
		OK:      false,
		Status:  http.StatusInternalServerError,
		Message: message,
		Error:   err.Error(),
	})
}

// writeImage streams generated image bytes, bypassing the JSON envelope.
func writeImage(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// queryString extracts a string query parameter.
func queryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// queryIntInRange extracts an integer query parameter constrained to
// [min, max], returning def when the parameter is absent. A non-integer
// or out-of-range value is an error; bounds are rejected before any
// collaborator runs.
func queryIntInRange(r *http.Request, key string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("The %s must be an integer between %d and %d", key, min, max)
	}
	return n, nil
}

// inSet reports whether v is one of the allowed enum values.
func inSet(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// enumMessage renders the rejection message for an enumerated parameter.
func enumMessage(key string, allowed []string) string {
	return fmt.Sprintf("The %s must be one of %s", key, strings.Join(allowed, ", "))
}

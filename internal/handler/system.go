package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/zachlagden/zlapi/internal/keystore"
)

// SystemHandler exposes key administration. Every route here sits behind
// the master-credential middleware; an issued key is not enough.
type SystemHandler struct {
	store *keystore.Store
}

// NewSystemHandler builds a SystemHandler over the given store.
func NewSystemHandler(store *keystore.Store) *SystemHandler {
	return &SystemHandler{store: store}
}

type createKeyRequest struct {
	CreatedBy string `json:"created_by"`
}

// CreateKey issues a new API key. The optional JSON body may carry a
// created_by attribution; it defaults to the store's sentinel.
func (h *SystemHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if r.Body != nil {
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil && !errors.Is(err, io.EOF) {
			writeValidationErrorDetail(w, "The request body must be valid JSON", err)
			return
		}
	}

	rec, err := h.store.Issue(req.CreatedBy)
	if err != nil {
		writeInternalError(w, "Failed to generate API key", err)
		return
	}
	writeSuccess(w, "Successfully generated a new API key", rec)
}

// ListKeys returns every issued key record. The raw keys are included:
// the snapshot file is the source of truth and this surface is
// master-gated.
func (h *SystemHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, "Successfully fetched API keys", h.store.List())
}

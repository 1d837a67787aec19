package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"parareg/internal/institution/models"
	id "parareg/pkg/domain"
	dErrors "parareg/pkg/domain-errors"
	"parareg/pkg/requestcontext"
)

// InstitutionService is the institution registry surface the transport
// depends on.
type InstitutionService interface {
	Register(ctx context.Context, instID id.InstitutionID, name string, caller id.Identity) error
	Verify(ctx context.Context, instID id.InstitutionID, caller id.Identity) error
	Get(ctx context.Context, instID id.InstitutionID) (*models.Institution, error)
}

type registerInstitutionRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) handleRegisterInstitution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerInstitutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	instID, err := id.ParseInstitutionID(req.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.institutions.Register(ctx, instID, req.Name, requestcontext.Caller(ctx)); err != nil {
		h.logger.WarnContext(ctx, "institution registration rejected",
			"request_id", requestcontext.RequestID(ctx),
			"institution_id", instID,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]id.InstitutionID{"institution_id": instID})
}

func (h *Handler) handleVerifyInstitution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	instID, err := id.ParseInstitutionID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.institutions.Verify(ctx, instID, requestcontext.Caller(ctx)); err != nil {
		h.logger.WarnContext(ctx, "institution verification rejected",
			"request_id", requestcontext.RequestID(ctx),
			"institution_id", instID,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetInstitution(w http.ResponseWriter, r *http.Request) {
	instID, err := id.ParseInstitutionID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	inst, err := h.institutions.Get(r.Context(), instID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

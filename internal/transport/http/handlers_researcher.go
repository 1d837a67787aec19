package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "parareg/pkg/domain"
	dErrors "parareg/pkg/domain-errors"
	"parareg/pkg/requestcontext"
)

// ResearcherService is the membership surface the transport depends on.
type ResearcherService interface {
	SetMembership(ctx context.Context, identity id.Identity, instID id.InstitutionID, caller id.Identity) error
	MembershipOf(ctx context.Context, identity id.Identity) (id.InstitutionID, error)
}

type membershipRequest struct {
	InstitutionID string `json:"institution_id"`
}

func (h *Handler) handleSetMembership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := id.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req membershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	instID, err := id.ParseInstitutionID(req.InstitutionID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.researchers.SetMembership(ctx, identity, instID, requestcontext.Caller(ctx)); err != nil {
		h.logger.WarnContext(ctx, "membership assignment rejected",
			"request_id", requestcontext.RequestID(ctx),
			"identity", identity,
			"institution_id", instID,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetMembership(w http.ResponseWriter, r *http.Request) {
	identity, err := id.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		writeError(w, err)
		return
	}

	instID, err := h.researchers.MembershipOf(r.Context(), identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]id.InstitutionID{"institution_id": instID})
}

package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"parareg/internal/record/models"
	recordservice "parareg/internal/record/service"
	id "parareg/pkg/domain"
	dErrors "parareg/pkg/domain-errors"
	"parareg/pkg/requestcontext"
)

// RecordService is the ledger surface the transport depends on.
type RecordService interface {
	AddRecord(ctx context.Context, input recordservice.Input, caller id.Identity) (id.RecordID, error)
	UpdateRecord(ctx context.Context, existingID id.RecordID, input recordservice.Input, caller id.Identity) (id.RecordID, error)
	GetRecord(ctx context.Context, recordID id.RecordID) (*models.ParasiteRecord, error)
	GetHistory(ctx context.Context, recordID id.RecordID) ([]*models.ParasiteRecord, error)
	TotalRecords(ctx context.Context) (uint64, error)
}

type recordRequest struct {
	ParasiteName   string `json:"parasite_name"`
	Classification string `json:"classification"`
	Location       string `json:"location"`
	MetadataHash   string `json:"metadata_hash"`
}

type recordIDResponse struct {
	RecordID id.RecordID `json:"record_id"`
}

func (h *Handler) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	input, err := decodeRecordInput(r)
	if err != nil {
		writeError(w, err)
		return
	}

	recordID, err := h.records.AddRecord(ctx, input, requestcontext.Caller(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "add record rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, recordIDResponse{RecordID: recordID})
}

func (h *Handler) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	existingID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	input, err := decodeRecordInput(r)
	if err != nil {
		writeError(w, err)
		return
	}

	newID, err := h.records.UpdateRecord(ctx, existingID, input, requestcontext.Caller(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "update record rejected",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", existingID,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordIDResponse{RecordID: newID})
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.records.GetRecord(r.Context(), recordID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	chain, err := h.records.GetHistory(r.Context(), recordID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chain)
}

func (h *Handler) handleTotalRecords(w http.ResponseWriter, r *http.Request) {
	total, err := h.records.TotalRecords(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"total_records": total})
}

func decodeRecordInput(r *http.Request) (recordservice.Input, error) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return recordservice.Input{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body")
	}
	hash, err := id.ParseMetadataHash(req.MetadataHash)
	if err != nil {
		return recordservice.Input{}, err
	}
	return recordservice.Input{
		ParasiteName:   req.ParasiteName,
		Classification: req.Classification,
		Location:       req.Location,
		MetadataHash:   hash,
	}, nil
}

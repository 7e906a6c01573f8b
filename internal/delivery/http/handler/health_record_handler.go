package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"health-record-vault/internal/delivery/dto"
	"health-record-vault/internal/delivery/http/middleware"
	"health-record-vault/internal/domain/entity"
	"health-record-vault/internal/usecase"
	"health-record-vault/pkg/response"
	"health-record-vault/pkg/validator"

	"github.com/gorilla/mux"
)

type HealthRecordHandler struct {
	recordUsecase usecase.HealthRecordUsecase
	validator     *validator.CustomValidator
}

func NewHealthRecordHandler(recordUsecase usecase.HealthRecordUsecase, validator *validator.CustomValidator) *HealthRecordHandler {
	return &HealthRecordHandler{
		recordUsecase: recordUsecase,
		validator:     validator,
	}
}

// requestContext pulls the caller and the {id} path variable.
func requestContext(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return "", 0, false
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid record ID")
		return "", 0, false
	}
	return username, id, true
}

func filterFromQuery(r *http.Request) *dto.RecordFilterRequest {
	q := r.URL.Query()
	return &dto.RecordFilterRequest{
		Search:     q.Get("q"),
		RecordType: q.Get("type"),
		From:       q.Get("from"),
		To:         q.Get("to"),
	}
}

// CreateRecord handles POST /records
// @Summary Create a health record
// @Tags Records
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateRecordRequest true "Record draft"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /records [post]
func (h *HealthRecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	record, err := h.recordUsecase.CreateRecord(r.Context(), username, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to create record")
		return
	}

	response.Success(w, http.StatusCreated, "Record created successfully", record)
}

// ListRecords handles GET /records?q=&type=&from=&to=
func (h *HealthRecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	records, err := h.recordUsecase.ListRecords(r.Context(), username, filterFromQuery(r))
	if err != nil {
		writeUsecaseError(w, err, "Failed to list records")
		return
	}

	response.Success(w, http.StatusOK, "Records retrieved successfully", records)
}

// ListSharedRecords handles GET /records/shared
func (h *HealthRecordHandler) ListSharedRecords(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	records, err := h.recordUsecase.ListSharedRecords(r.Context(), username, filterFromQuery(r))
	if err != nil {
		writeUsecaseError(w, err, "Failed to list shared records")
		return
	}

	response.Success(w, http.StatusOK, "Shared records retrieved successfully", records)
}

// GetRecord handles GET /records/{id}
func (h *HealthRecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	username, id, ok := requestContext(w, r)
	if !ok {
		return
	}

	record, err := h.recordUsecase.GetRecord(r.Context(), username, id)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get record")
		return
	}

	response.Success(w, http.StatusOK, "Record retrieved successfully", record)
}

// ShareRecord handles PUT /records/{id}/share
func (h *HealthRecordHandler) ShareRecord(w http.ResponseWriter, r *http.Request) {
	username, id, ok := requestContext(w, r)
	if !ok {
		return
	}

	var req dto.ShareRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	sharing, err := h.recordUsecase.ShareRecord(r.Context(), username, id, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to share record")
		return
	}

	response.Success(w, http.StatusOK, "Record shared successfully", sharing)
}

// RevokeShare handles DELETE /records/{id}/share/{username}
func (h *HealthRecordHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	username, id, ok := requestContext(w, r)
	if !ok {
		return
	}

	sharing, err := h.recordUsecase.RevokeShare(r.Context(), username, id, mux.Vars(r)["username"])
	if err != nil {
		writeUsecaseError(w, err, "Failed to revoke share")
		return
	}

	response.Success(w, http.StatusOK, "Share revoked successfully", sharing)
}

// SetEmergencyAccess handles PUT /records/{id}/emergency-access
func (h *HealthRecordHandler) SetEmergencyAccess(w http.ResponseWriter, r *http.Request) {
	username, id, ok := requestContext(w, r)
	if !ok {
		return
	}

	var req dto.EmergencyAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	record, err := h.recordUsecase.SetEmergencyAccessible(r.Context(), username, id, *req.Accessible)
	if err != nil {
		writeUsecaseError(w, err, "Failed to update emergency access")
		return
	}

	response.Success(w, http.StatusOK, "Emergency access updated successfully", record)
}

// AcceptRecord handles POST /records/{id}/accept
func (h *HealthRecordHandler) AcceptRecord(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, entity.RecordActionAccept, "Record accepted")
}

// RejectRecord handles POST /records/{id}/reject
func (h *HealthRecordHandler) RejectRecord(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, entity.RecordActionReject, "Record rejected")
}

func (h *HealthRecordHandler) transition(w http.ResponseWriter, r *http.Request, action entity.RecordAction, message string) {
	username, id, ok := requestContext(w, r)
	if !ok {
		return
	}

	record, err := h.recordUsecase.TransitionStatus(r.Context(), username, id, string(action))
	if err != nil {
		writeUsecaseError(w, err, "Failed to update record status")
		return
	}

	response.Success(w, http.StatusOK, message, record)
}

// VerifyRecord handles POST /records/{id}/verify. A failed verification is
// a 200 with verified=false.
func (h *HealthRecordHandler) VerifyRecord(w http.ResponseWriter, r *http.Request) {
	username, id, ok := requestContext(w, r)
	if !ok {
		return
	}

	var req dto.VerifyRecordRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}
	}

	result, err := h.recordUsecase.VerifySignature(r.Context(), username, id, req.PublicKey)
	if err != nil {
		writeUsecaseError(w, err, "Failed to verify record")
		return
	}

	response.Success(w, http.StatusOK, "Verification completed", result)
}

// GetAuditTrail handles GET /records/{id}/audit
func (h *HealthRecordHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	username, id, ok := requestContext(w, r)
	if !ok {
		return
	}

	trail, err := h.recordUsecase.RecordAuditTrail(r.Context(), username, id)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get audit trail")
		return
	}

	response.Success(w, http.StatusOK, "Audit trail retrieved successfully", trail)
}

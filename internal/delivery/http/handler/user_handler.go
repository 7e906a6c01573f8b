package handler

import (
	"encoding/json"
	"net/http"

	"health-record-vault/internal/delivery/dto"
	"health-record-vault/internal/delivery/http/middleware"
	"health-record-vault/internal/usecase"
	"health-record-vault/pkg/response"
	"health-record-vault/pkg/validator"
)

type UserHandler struct {
	userUsecase usecase.UserUsecase
	validator   *validator.CustomValidator
}

func NewUserHandler(userUsecase usecase.UserUsecase, validator *validator.CustomValidator) *UserHandler {
	return &UserHandler{
		userUsecase: userUsecase,
		validator:   validator,
	}
}

// UpdateProfile handles PATCH /users/me
// @Summary Update own profile
// @Tags Users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.UpdateProfileRequest true "Profile patch"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /users/me [patch]
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	user, err := h.userUsecase.UpdateProfile(r.Context(), username, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to update profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile updated successfully", user)
}

// IssueKeyPair handles POST /users/me/keys
// @Summary Issue a signing keypair
// @Description The private key is returned once and never stored.
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users/me/keys [post]
func (h *UserHandler) IssueKeyPair(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	keys, err := h.userUsecase.IssueKeyPair(r.Context(), username)
	if err != nil {
		writeUsecaseError(w, err, "Failed to issue key pair")
		return
	}

	response.Success(w, http.StatusCreated, "Key pair issued, store the private key safely", keys)
}

// LookupPatient handles POST /patients/lookup
// @Summary Find a patient by patient code (GP only)
// @Tags Patients
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.PatientLookupRequest true "Lookup Request"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /patients/lookup [post]
func (h *UserHandler) LookupPatient(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.PatientLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	patient, err := h.userUsecase.LookupPatientByCode(r.Context(), username, req.PatientCode)
	if err != nil {
		writeUsecaseError(w, err, "Failed to look up patient")
		return
	}

	response.Success(w, http.StatusOK, "Patient found", patient)
}

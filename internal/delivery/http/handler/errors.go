package handler

import (
	"errors"
	"net/http"

	"health-record-vault/internal/domain/entity"
	"health-record-vault/internal/service"
	"health-record-vault/internal/usecase"
	"health-record-vault/pkg/response"
)

// writeUsecaseError maps domain errors onto HTTP status codes. Anything
// unrecognised is an internal error reported with fallback.
func writeUsecaseError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrRecordNotFound),
		errors.Is(err, usecase.ErrPatientNotFound),
		errors.Is(err, usecase.ErrUserNotFound),
		errors.Is(err, service.ErrGranteeNotFound):
		response.NotFound(w, err.Error())

	case errors.Is(err, service.ErrAccessDenied):
		response.Forbidden(w, err.Error())

	case errors.Is(err, entity.ErrInvalidAccessLevel),
		errors.Is(err, entity.ErrInvalidAction),
		errors.Is(err, usecase.ErrEmergencyContactNotFound),
		errors.Is(err, usecase.ErrGPNotFound),
		errors.Is(err, usecase.ErrInvalidSignature),
		errors.Is(err, usecase.ErrIssuerHasNoKey),
		errors.Is(err, usecase.ErrFacilityRequired),
		errors.Is(err, usecase.ErrBlankRecordField),
		errors.Is(err, usecase.ErrInvalidDateFormat):
		response.BadRequest(w, err.Error())

	case errors.Is(err, entity.ErrInvalidTransition),
		errors.Is(err, usecase.ErrStorageConflict),
		errors.Is(err, usecase.ErrKeyAlreadyIssued),
		errors.Is(err, usecase.ErrUsernameAlreadyExists):
		response.Conflict(w, err.Error())

	case errors.Is(err, service.ErrLookupRateLimited):
		response.TooManyRequests(w, err.Error())

	case errors.Is(err, usecase.ErrInvalidCredentials),
		errors.Is(err, usecase.ErrInvalidToken),
		errors.Is(err, usecase.ErrTokenRevoked):
		response.Unauthorized(w, err.Error())

	default:
		response.InternalServerError(w, fallback)
	}
}

package converter

import (
	"health-record-vault/internal/delivery/dto"
	"health-record-vault/internal/domain/entity"
	"health-record-vault/internal/service"
)

// HealthRecordToResponse renders a record for a requester who reached it at
// level. Private notes and the sharing ledger are only shown to the owner.
func HealthRecordToResponse(record *entity.HealthRecord, level service.AccessLevel) *dto.HealthRecordResponse {
	if record == nil {
		return nil
	}

	content := record.Content.Data()
	resp := &dto.HealthRecordResponse{
		ID:          record.ID,
		PatientUUID: record.PatientUUID,
		CreatedBy:   record.CreatedBy,
		Title:       record.Title,
		Date:        record.Date,
		RecordType:  record.RecordType,
		Facility:    record.Facility,
		Content: dto.RecordContentResponse{
			Notes:     content.Notes,
			Diagnosis: content.Diagnosis,
			Treatment: content.Treatment,
		},
		Status:                string(record.Status),
		IsEmergencyAccessible: record.IsEmergencyAccessible,
		Signed:                record.IsSigned(),
		Signature:             record.Signature,
		VerifiedAt:            record.VerifiedAt,
		VerifiedBy:            record.VerifiedBy,
		AccessLevel:           string(level),
		CreatedAt:             record.CreatedAt,
		UpdatedAt:             record.UpdatedAt,
	}

	if level == service.AccessOwner {
		resp.Content.PrivateNotes = content.PrivateNotes
		resp.SharedWith = SharedAccessToResponses(record.SharedWith)
	}

	return resp
}

func SharedAccessToResponses(ledger []entity.SharedAccess) []dto.SharedAccessResponse {
	responses := make([]dto.SharedAccessResponse, len(ledger))
	for i, s := range ledger {
		responses[i] = dto.SharedAccessResponse{
			Username:        s.Username,
			AccessLevel:     string(s.AccessLevel),
			AccessGrantedAt: s.AccessGrantedAt,
		}
	}
	return responses
}

func RecordToSharingResponse(record *entity.HealthRecord) *dto.SharingResponse {
	if record == nil {
		return nil
	}
	return &dto.SharingResponse{
		RecordID:   record.ID,
		SharedWith: SharedAccessToResponses(record.SharedWith),
	}
}

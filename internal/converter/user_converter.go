package converter

import (
	"health-record-vault/internal/delivery/dto"
	"health-record-vault/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	allergies := make([]string, len(user.Allergies))
	copy(allergies, user.Allergies)

	return &dto.UserResponse{
		ID:                user.UUID,
		Username:          user.Username,
		FullName:          user.FullName,
		Role:              user.RoleName(),
		PatientCode:       user.PatientCode,
		BloodType:         user.BloodType,
		Allergies:         allergies,
		EmergencyContacts: EmergencyContactsToResponses(user.EmergencyContacts),
		GPUsername:        user.GPUsername,
		HasPublicKey:      user.HasPublicKey(),
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}
}

func EmergencyContactsToResponses(contacts []entity.EmergencyContact) []dto.EmergencyContactResponse {
	responses := make([]dto.EmergencyContactResponse, len(contacts))
	for i, c := range contacts {
		responses[i] = dto.EmergencyContactResponse{
			Username:       c.Username,
			Name:           c.Name,
			Relationship:   c.Relationship,
			Phone:          c.Phone,
			Email:          c.Email,
			CanViewRecords: c.CanViewRecords,
		}
	}
	return responses
}

// EmergencyContactsFromRequests keeps request order, which is the order the
// patient listed their contacts in.
func EmergencyContactsFromRequests(reqs []dto.EmergencyContactRequest) []entity.EmergencyContact {
	contacts := make([]entity.EmergencyContact, len(reqs))
	for i, r := range reqs {
		contacts[i] = entity.EmergencyContact{
			Username:       r.Username,
			Name:           r.Name,
			Relationship:   r.Relationship,
			Phone:          r.Phone,
			Email:          r.Email,
			CanViewRecords: r.CanViewRecords,
		}
	}
	return contacts
}

func UserToPatientLookupResponse(user *entity.User) *dto.PatientLookupResponse {
	if user == nil {
		return nil
	}

	code := ""
	if user.PatientCode != nil {
		code = *user.PatientCode
	}
	return &dto.PatientLookupResponse{
		ID:          user.UUID,
		Username:    user.Username,
		FullName:    user.FullName,
		PatientCode: code,
	}
}

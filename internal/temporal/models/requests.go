package models

import (
	s "tempora/pkg/string"
	"tempora/pkg/validation"
)

// RevealRequest asks to disclose the secret for one epoch.
// Epoch is a pointer so that epoch 0 survives the required check.
type RevealRequest struct {
	CredentialID string `json:"credential_id" validate:"required,notblank"`
	Epoch        *int   `json:"epoch" validate:"required,gte=0,lte=19"`
}

func (r *RevealRequest) Sanitize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.CredentialID)
}

func (r *RevealRequest) Validate() error {
	return validation.Validate(r)
}

// IssueScheduleRequest creates the commitment schedule for a credential.
// BaseSecret is optional and intended for deterministic re-issuance tooling.
type IssueScheduleRequest struct {
	CredentialID string `json:"credential_id" validate:"required,notblank"`
	Periods      int    `json:"periods" validate:"required,gte=1,lte=20"`
	BaseSecret   string `json:"base_secret,omitempty"`
}

func (r *IssueScheduleRequest) Sanitize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.CredentialID, &r.BaseSecret)
}

func (r *IssueScheduleRequest) Validate() error {
	return validation.Validate(r)
}

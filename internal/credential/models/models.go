package models

import (
	"time"

	s "tempora/pkg/string"
	"tempora/pkg/validation"
)

// Credential is one issued university-degree credential record. The
// verifiable credential document itself lives in external storage; this row
// carries the references plus lifecycle state.
type Credential struct {
	ID                string     `json:"id"`
	StudentName       string     `json:"student_name"`
	Degree            string     `json:"degree"`
	University        string     `json:"university"`
	GraduationDate    string     `json:"graduation_date"`
	StudentID         *string    `json:"student_id,omitempty"`
	VcCID             string     `json:"vc_cid"`
	AttestationUID    string     `json:"attestation_uid"`
	AttestationTxHash string     `json:"attestation_tx_hash"`
	IssuerDID         string     `json:"issuer_did"`
	IssuedAt          time.Time  `json:"issued_at"`
	RevokedAt         *time.Time `json:"revoked_at,omitempty"`
	RevocationReason  *string    `json:"revocation_reason,omitempty"`
}

// IsRevoked reports whether the credential has been revoked.
func (c *Credential) IsRevoked() bool {
	return c.RevokedAt != nil
}

// IssueRequest creates a credential and its temporal schedule in one call.
type IssueRequest struct {
	StudentName     string `json:"student_name" validate:"required,notblank"`
	Degree          string `json:"degree" validate:"required,notblank"`
	University      string `json:"university" validate:"required,notblank"`
	GraduationDate  string `json:"graduation_date" validate:"required,notblank"`
	StudentID       string `json:"student_id,omitempty"`
	TemporalPeriods int    `json:"temporal_periods,omitempty" validate:"omitempty,gte=1,lte=20"`
}

func (r *IssueRequest) Sanitize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.StudentName, &r.Degree, &r.University, &r.GraduationDate, &r.StudentID)
}

func (r *IssueRequest) Validate() error {
	return validation.Validate(r)
}

// RevokeRequest revokes a credential with an operator-supplied reason.
type RevokeRequest struct {
	Reason string `json:"reason" validate:"required,notblank"`
}

func (r *RevokeRequest) Sanitize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.Reason)
}

func (r *RevokeRequest) Validate() error {
	return validation.Validate(r)
}

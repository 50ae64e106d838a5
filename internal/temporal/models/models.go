package models

import (
	"time"

	"tempora/internal/temporal/chain"
)

// EpochStatus is the display state of a single commitment.
type EpochStatus string

const (
	StatusRevealed  EpochStatus = "revealed"
	StatusCanReveal EpochStatus = "can_reveal"
	StatusLocked    EpochStatus = "locked"
)

// Commitment is one persisted row per credential and epoch. Created in a
// batch at issuance, mutated exactly once by a successful reveal, never
// deleted: revealed rows are historical evidence.
type Commitment struct {
	ID             string     `json:"id"`
	CredentialID   string     `json:"credential_id"`
	Epoch          int        `json:"epoch"`
	Commitment     string     `json:"commitment"`
	RevealDeadline time.Time  `json:"reveal_deadline"`
	Revealed       bool       `json:"revealed"`
	RevealedSecret *string    `json:"revealed_secret,omitempty"`
	RevealedAt     *time.Time `json:"revealed_at,omitempty"`
}

// ComputeStatus derives the display status of the commitment at the given time.
func (c *Commitment) ComputeStatus(now time.Time) EpochStatus {
	switch {
	case c.Revealed:
		return StatusRevealed
	case chain.CanReveal(now, c.RevealDeadline):
		return StatusCanReveal
	default:
		return StatusLocked
	}
}

// DaysUntilReveal returns whole days until the deadline, rounded up.
// Zero once revealed or once the deadline has passed.
func (c *Commitment) DaysUntilReveal(now time.Time) int {
	if c.Revealed || !now.Before(c.RevealDeadline) {
		return 0
	}
	remaining := c.RevealDeadline.Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// ScheduleEntry is the public slice of one epoch returned at issuance:
// commitment hash and deadline only, never the secret.
type ScheduleEntry struct {
	Epoch          int       `json:"epoch"`
	Commitment     string    `json:"commitment"`
	RevealDeadline time.Time `json:"reveal_deadline"`
}

// Schedule is the issuance result for one credential.
type Schedule struct {
	CredentialID string          `json:"credential_id"`
	Commitments  []ScheduleEntry `json:"commitments"`
	NextDeadline time.Time       `json:"next_deadline"`
}

// RevealReceipt is returned on a successful reveal.
type RevealReceipt struct {
	CredentialID string    `json:"credential_id"`
	Epoch        int       `json:"epoch"`
	Secret       string    `json:"secret"`
	Commitment   string    `json:"commitment"`
	RevealedAt   time.Time `json:"revealed_at"`
	Verification string    `json:"verification"`
}

// TimelineEntry is one epoch in the status view.
type TimelineEntry struct {
	Epoch           int         `json:"epoch"`
	Commitment      string      `json:"commitment"`
	RevealDeadline  time.Time   `json:"reveal_deadline"`
	Revealed        bool        `json:"revealed"`
	RevealedAt      *time.Time  `json:"revealed_at,omitempty"`
	Status          EpochStatus `json:"status"`
	DaysUntilReveal int         `json:"days_until_reveal"`
}

// TimelineSummary is the read-only status view for one credential.
// It performs no mutation; AutoRevokeRisk flags commitments whose grace
// period has lapsed and that the next sweep will act on.
type TimelineSummary struct {
	CredentialID   string          `json:"credential_id"`
	TotalPeriods   int             `json:"total_periods"`
	Revealed       int             `json:"revealed"`
	Pending        int             `json:"pending"`
	Expired        int             `json:"expired"`
	AutoRevokeRisk bool            `json:"auto_revoke_risk"`
	Timeline       []TimelineEntry `json:"timeline"`
}

// RevokedCredential identifies one credential revoked by the sweep.
type RevokedCredential struct {
	CredentialID string    `json:"credential_id"`
	Epoch        int       `json:"epoch"`
	Deadline     time.Time `json:"deadline"`
}

// SweepFailure records a revocation that could not be applied. One bad row
// must not block revocation of the rest.
type SweepFailure struct {
	CredentialID string `json:"credential_id"`
	Epoch        int    `json:"epoch"`
	Error        string `json:"error"`
}

// RevocationBatch is the result of a single expiry sweep.
type RevocationBatch struct {
	CheckedAt          time.Time           `json:"checked_at"`
	ExpiredCommitments int                 `json:"expired_commitments"`
	Revoked            []RevokedCredential `json:"revoked"`
	Failures           []SweepFailure      `json:"failures,omitempty"`
}

// RescheduledEntry reports one deadline shifted by the demo simulation.
type RescheduledEntry struct {
	Epoch       int       `json:"epoch"`
	OldDeadline time.Time `json:"old_deadline"`
	NewDeadline time.Time `json:"new_deadline"`
}

// Package chain implements forward hash chains for time-locked commitments.
//
// A chain binds an issuer to one secret per epoch. Commitments are published
// at issuance; each secret is revealed only after its epoch's deadline,
// proving continued possession. Knowing secrets[i] never yields secrets[j]
// for j > i because the secret step hashes the epoch index into the input.
//
// The package is pure: no I/O, no persistence, no clock reads. All time
// comparisons take an explicit now so callers can inject a request-scoped
// clock.
package chain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	dErrors "tempora/pkg/domain-errors"
)

const (
	// MinPeriods and MaxPeriods bound the chain length. One commitment row is
	// persisted per period, and deadlines stack one interval per epoch.
	MinPeriods = 1
	MaxPeriods = 20

	// DefaultIntervalMonths is the spacing between consecutive reveal deadlines.
	DefaultIntervalMonths = 12

	// DefaultGracePeriodDays is how long after a deadline a reveal is still
	// accepted before the commitment counts as expired.
	DefaultGracePeriodDays = 30
)

// Chain holds the full derivation for one credential. It is ephemeral
// generator output: commitments are persisted per epoch, secrets go to the
// secret bundle store, and the struct as a whole is never stored.
type Chain struct {
	// Commitments are the public per-epoch hashes, indexed by epoch.
	Commitments []string
	// Secrets are the private pre-images, same indexing. Issuer-only.
	Secrets []string
	// BaseSecret is the root from which all secrets are forward-derived.
	BaseSecret string
}

// Periods returns the chain length.
func (c *Chain) Periods() int {
	return len(c.Commitments)
}

// Result reports the outcome of a reveal verification. Message is
// human-readable in both outcomes and is meant for audit logs.
type Result struct {
	Valid   bool
	Message string
}

// Generate derives a temporal hash chain of the given length.
//
// If baseSecret is empty a 32-byte secret is drawn from crypto/rand and
// hex-encoded. For a fixed baseSecret the output is deterministic.
//
// Derivation per epoch i:
//
//	secrets[i]     = current
//	commitments[i] = Commitment(current, i)
//	current        = H(current || itoa(i))
//
// The epoch index in the secret step couples each secret to its position,
// preventing secret reuse across chains with different starting epochs.
func Generate(periods int, baseSecret string) (*Chain, error) {
	if periods < MinPeriods || periods > MaxPeriods {
		return nil, dErrors.New(dErrors.CodeInvalidArgument,
			fmt.Sprintf("periods must be between %d and %d", MinPeriods, MaxPeriods))
	}

	base := baseSecret
	if base == "" {
		var err error
		base, err = randomSecret()
		if err != nil {
			return nil, err
		}
	}

	secrets := make([]string, 0, periods)
	commitments := make([]string, 0, periods)

	current := base
	for i := 0; i < periods; i++ {
		secrets = append(secrets, current)
		commitments = append(commitments, Commitment(current, i))
		current = hash(current + strconv.Itoa(i))
	}

	return &Chain{
		Commitments: commitments,
		Secrets:     secrets,
		BaseSecret:  base,
	}, nil
}

// Commitment hashes secret exactly epoch+1 times.
//
// Repeated hashing gives forward security: holding secrets[i] lets anyone
// recompute commitments[j] for j >= i by hashing further, but never walk
// back to earlier commitments or forward to later secrets.
func Commitment(secret string, epoch int) string {
	h := secret
	for i := 0; i <= epoch; i++ {
		h = hash(h)
	}
	return h
}

// VerifyReveal recomputes the commitment for the supplied secret and epoch
// and compares it to the stored commitment. It never returns an error: a
// corrupt or missing secret must surface as a clean verification failure,
// not crash the reveal flow.
func VerifyReveal(secret, commitment string, epoch int) Result {
	if epoch < 0 {
		return Result{Valid: false, Message: fmt.Sprintf("verification error: invalid epoch %d", epoch)}
	}

	computed := Commitment(secret, epoch)
	if computed == commitment {
		return Result{Valid: true, Message: fmt.Sprintf("secret verified for epoch %d", epoch)}
	}
	return Result{Valid: false, Message: fmt.Sprintf("secret does not match commitment for epoch %d", epoch)}
}

// CanReveal reports whether the deadline has been reached. No early reveal.
func CanReveal(now, deadline time.Time) bool {
	return !now.Before(deadline)
}

// IsExpired reports whether now is past the deadline plus the grace period.
// The last day of the grace period is still accepted.
func IsExpired(now, deadline time.Time, gracePeriodDays int) bool {
	graceEnd := deadline.AddDate(0, 0, gracePeriodDays)
	return now.After(graceEnd)
}

// Deadline computes epoch's reveal deadline: issueDate plus (epoch+1)
// intervals. Always computed directly from the issue date, not accumulated
// from the previous deadline, so calendar-month normalization never
// compounds across epochs.
func Deadline(issueDate time.Time, epoch, intervalMonths int) time.Time {
	return issueDate.AddDate(0, (epoch+1)*intervalMonths, 0)
}

// hash is SHA-256 over UTF-8 input, lowercase hex output. The exact
// function and encoding are load-bearing: changing either invalidates
// every previously issued commitment.
func hash(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate base secret")
	}
	return hex.EncodeToString(buf), nil
}

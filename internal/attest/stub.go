// Package attest provides an explicitly stubbed attestation client.
//
// The real system anchors credentials and reveal events on an external
// attestation service. That integration is a deployment concern; this stub
// produces well-formed, collision-resistant handles from crypto/rand so the
// rest of the pipeline can treat them as opaque references. Nothing here
// talks to a chain.
package attest

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Stub generates placeholder attestation handles.
type Stub struct{}

// NewStub returns a stub attestation client.
func NewStub() Stub {
	return Stub{}
}

// TxRef returns a placeholder transaction reference.
func (Stub) TxRef() string {
	return "0x" + randomHex(32)
}

// AttestationUID returns a placeholder attestation identifier.
func (Stub) AttestationUID() string {
	return "0x" + randomHex(32)
}

// CID returns a placeholder content identifier for pinned credential data.
func (Stub) CID() string {
	return fmt.Sprintf("bafy%d%s", time.Now().UnixMilli(), randomHex(6))
}

func randomHex(n int) string {
	buf := make([]byte, n)
	// crypto/rand never fails on supported platforms; fall back to zeros
	// rather than panic in a handle generator.
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

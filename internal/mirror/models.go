// Package mirror is the organization-local read store. It holds derived
// copies of authoritative ledger records plus hospital-originated patient
// records; it is never the source of truth, and every record points back at
// the ledger event that produced it.
package mirror

import (
	"time"

	"github.com/google/uuid"
)

// RecordKind partitions the mirror keyspace.
type RecordKind string

const (
	KindPatientRecord      RecordKind = "patient_record"
	KindClaimRequest       RecordKind = "claim_request"
	KindPolicyVerification RecordKind = "policy_verification"
)

// Valid reports whether the kind is one of the known partitions.
func (k RecordKind) Valid() bool {
	switch k {
	case KindPatientRecord, KindClaimRequest, KindPolicyVerification:
		return true
	}
	return false
}

// Record is a mirrored document. Payload is schemaless on purpose: the mirror
// accepts whatever field set the originating event carried. AuthoritativeRef
// is the ledger event id the record was derived from (zero for
// hospital-originated patient records).
type Record struct {
	Kind             RecordKind     `json:"kind"`
	ID               string         `json:"id"`
	Payload          map[string]any `json:"payload"`
	AuthoritativeRef uuid.UUID      `json:"authoritative_ref,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func copyPayload(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyRecord(r Record) Record {
	r.Payload = copyPayload(r.Payload)
	return r
}

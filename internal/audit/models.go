package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// AuditAction names every audited operation on the ledger and mirror sides.
type AuditAction string

const (
	// Ledger actions
	ActionPolicyRegistered  AuditAction = "policy_registered"
	ActionPolicyDeactivated AuditAction = "policy_deactivated"
	ActionClaimSubmitted    AuditAction = "claim_submitted"
	ActionClaimProcessed    AuditAction = "claim_processed"

	// Mirror actions
	ActionMirrorRecordWritten AuditAction = "mirror_record_written"
	ActionPatientRecordAdded  AuditAction = "patient_record_added"
	ActionSyncFailed          AuditAction = "sync_failed"

	// Party actions
	ActionPartyRegistered    AuditAction = "party_registered"
	ActionPartyAuthenticated AuditAction = "party_authenticated"
	ActionAuthFailed         AuditAction = "auth_failed"
)

package ledger

import (
	"time"

	"github.com/google/uuid"

	"insurechain/internal/ledger/models"
)

// EventType enumerates the lifecycle events the ledger emits. Keep events
// transport-agnostic so journals, channels, and brokers can fan out.
type EventType string

const (
	EventPolicyRegistered  EventType = "policy_registered"
	EventClaimSubmitted    EventType = "claim_submitted"
	EventClaimProcessed    EventType = "claim_processed"
	EventPolicyDeactivated EventType = "policy_deactivated"
)

// Event carries the full field set of the record it describes. EventID is the
// authoritative reference mirror records point back to; Sequence is the
// journal position assigned at emission.
type Event struct {
	EventID   uuid.UUID    `json:"event_id"`
	Type      EventType    `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Sequence  uint64       `json:"sequence"`
	Policy    *PolicyEvent `json:"policy,omitempty"`
	Claim     *ClaimEvent  `json:"claim,omitempty"`
}

// PolicyEvent snapshots a policy at emission time.
type PolicyEvent struct {
	PolicyID      string    `json:"policy_id"`
	Holder        string    `json:"holder"`
	InsuredAmount int64     `json:"insured_amount"`
	Premium       int64     `json:"premium"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	IsActive      bool      `json:"is_active"`
	DocumentHash  string    `json:"document_hash"`
}

// ClaimEvent snapshots a claim at emission time.
type ClaimEvent struct {
	ClaimID         string             `json:"claim_id"`
	PolicyID        string             `json:"policy_id"`
	Claimant        string             `json:"claimant"`
	Amount          int64              `json:"amount"`
	Description     string             `json:"description"`
	SubmittedAt     time.Time          `json:"submitted_at"`
	Status          models.ClaimStatus `json:"status"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
}

func newEvent(eventType EventType, now time.Time) Event {
	return Event{
		EventID:   uuid.New(),
		Type:      eventType,
		Timestamp: now,
	}
}

func policySnapshot(p *models.Policy) *PolicyEvent {
	return &PolicyEvent{
		PolicyID:      p.ID,
		Holder:        p.Holder,
		InsuredAmount: p.InsuredAmount,
		Premium:       p.Premium,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		IsActive:      p.IsActive,
		DocumentHash:  p.DocumentHash,
	}
}

func claimSnapshot(c *models.Claim) *ClaimEvent {
	return &ClaimEvent{
		ClaimID:         c.ID,
		PolicyID:        c.PolicyID,
		Claimant:        c.Claimant,
		Amount:          c.Amount,
		Description:     c.Description,
		SubmittedAt:     c.SubmittedAt,
		Status:          c.Status,
		RejectionReason: c.RejectionReason,
	}
}

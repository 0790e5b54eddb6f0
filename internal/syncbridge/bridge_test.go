package syncbridge

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insurechain/internal/ledger"
	"insurechain/internal/ledger/models"
	"insurechain/internal/mirror"
	dErrors "insurechain/pkg/domain-errors"
)

var eventTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newBridge() (*Bridge, *mirror.Service) {
	m := mirror.New(mirror.NewInMemoryStore(), "general-hospital")
	return NewBridge(m), m
}

func policyRegistered(seq uint64) ledger.Event {
	return ledger.Event{
		EventID:   uuid.New(),
		Type:      ledger.EventPolicyRegistered,
		Timestamp: eventTime,
		Sequence:  seq,
		Policy: &ledger.PolicyEvent{
			PolicyID:      "pol-1",
			Holder:        "holder-1",
			InsuredAmount: 10,
			Premium:       1,
			StartDate:     eventTime,
			EndDate:       eventTime.AddDate(1, 0, 0),
			IsActive:      true,
		},
	}
}

func claimSubmitted(seq uint64) ledger.Event {
	return ledger.Event{
		EventID:   uuid.New(),
		Type:      ledger.EventClaimSubmitted,
		Timestamp: eventTime,
		Sequence:  seq,
		Claim: &ledger.ClaimEvent{
			ClaimID:     "clm-1",
			PolicyID:    "pol-1",
			Claimant:    "holder-1",
			Amount:      3,
			Description: "x-ray",
			SubmittedAt: eventTime,
			Status:      models.ClaimStatusPending,
		},
	}
}

func claimProcessed(seq uint64, status models.ClaimStatus, reason string) ledger.Event {
	e := claimSubmitted(seq)
	e.Type = ledger.EventClaimProcessed
	e.Claim.Status = status
	e.Claim.RejectionReason = reason
	return e
}

func TestApplyPolicyRegistered(t *testing.T) {
	ctx := context.Background()
	bridge, m := newBridge()

	event := policyRegistered(1)
	require.NoError(t, bridge.Apply(ctx, event))

	record, err := m.Get(ctx, mirror.KindPolicyVerification, "VERIFICATION_pol-1_holder-1")
	require.NoError(t, err)
	assert.Equal(t, "active", record.Payload["status"])
	assert.Equal(t, "pol-1", record.Payload["policy_id"])
	assert.Equal(t, "holder-1", record.Payload["holder"])
	assert.Equal(t, event.EventID, record.AuthoritativeRef)
}

func TestApplyClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	bridge, m := newBridge()

	require.NoError(t, bridge.Apply(ctx, claimSubmitted(1)))

	record, err := m.Get(ctx, mirror.KindClaimRequest, "clm-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", record.Payload["status"])

	require.NoError(t, bridge.Apply(ctx, claimProcessed(2, models.ClaimStatusRejected, "claim ratio exceeded")))

	record, err = m.Get(ctx, mirror.KindClaimRequest, "clm-1")
	require.NoError(t, err)
	assert.Equal(t, "rejected", record.Payload["status"])
	assert.Equal(t, "claim ratio exceeded", record.Payload["rejection_reason"])
	// Status update preserves the original submission fields.
	assert.Equal(t, "x-ray", record.Payload["description"])
	assert.Equal(t, "holder-1", record.Payload["claimant"])
}

func TestApplyClaimProcessedUnknownClaim(t *testing.T) {
	ctx := context.Background()
	bridge, m := newBridge()

	err := bridge.Apply(ctx, claimProcessed(1, models.ClaimStatusApproved, ""))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeSyncFailure))

	_, err = m.Get(ctx, mirror.KindClaimRequest, "clm-1")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound), "failed event must write nothing")
}

func TestApplyPolicyDeactivated(t *testing.T) {
	ctx := context.Background()
	bridge, m := newBridge()

	require.NoError(t, bridge.Apply(ctx, policyRegistered(1)))

	event := policyRegistered(2)
	event.Type = ledger.EventPolicyDeactivated
	event.Policy.IsActive = false
	require.NoError(t, bridge.Apply(ctx, event))

	record, err := m.Get(ctx, mirror.KindPolicyVerification, "VERIFICATION_pol-1_holder-1")
	require.NoError(t, err)
	assert.Equal(t, "inactive", record.Payload["status"])
	assert.Equal(t, "pol-1", record.Payload["policy_id"], "deactivation keeps the verification fields")
}

func TestApplyPolicyDeactivatedUnknownPolicy(t *testing.T) {
	ctx := context.Background()
	bridge, _ := newBridge()

	event := policyRegistered(1)
	event.Type = ledger.EventPolicyDeactivated
	err := bridge.Apply(ctx, event)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeSyncFailure))
}

func TestApplyUnknownEventType(t *testing.T) {
	bridge, _ := newBridge()
	err := bridge.Apply(context.Background(), ledger.Event{Type: ledger.EventType("bogus")})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeSyncFailure))
}

func TestReplayConverges(t *testing.T) {
	ctx := context.Background()
	bridge, m := newBridge()

	events := []ledger.Event{
		policyRegistered(1),
		claimSubmitted(2),
		claimProcessed(3, models.ClaimStatusApproved, ""),
	}
	for _, e := range events {
		require.NoError(t, bridge.Apply(ctx, e))
	}
	first, err := m.Get(ctx, mirror.KindClaimRequest, "clm-1")
	require.NoError(t, err)

	// Replaying the whole journal lands on the same state.
	for _, e := range events {
		require.NoError(t, bridge.Apply(ctx, e))
	}
	second, err := m.Get(ctx, mirror.KindClaimRequest, "clm-1")
	require.NoError(t, err)
	assert.Equal(t, first.Payload, second.Payload)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestSubmitPatientRecord(t *testing.T) {
	ctx := context.Background()
	bridge, m := newBridge()

	record, err := bridge.SubmitPatientRecord(ctx, PatientRecordSubmission{
		PatientID:     "PAT-001",
		FullName:      "Jordan Doe",
		DiagnosisCode: "J18.9",
		Physician:     "Dr. Asha Rao",
		Notes:         "community acquired",
	})
	require.NoError(t, err)
	assert.Equal(t, "PAT-001", record.ID)
	assert.Equal(t, "J18.9", record.Payload["diagnosis_code"])

	got, err := m.Get(ctx, mirror.KindPatientRecord, "PAT-001")
	require.NoError(t, err)
	assert.Equal(t, "Jordan Doe", got.Payload["full_name"])
}

func TestSubmitPatientRecordRejectsInvalidPayloads(t *testing.T) {
	ctx := context.Background()
	bridge, m := newBridge()

	cases := []struct {
		name string
		sub  PatientRecordSubmission
	}{
		{"bad patient id", PatientRecordSubmission{PatientID: "001", FullName: "Jordan Doe", DiagnosisCode: "J18.9", Physician: "Dr. Rao"}},
		{"missing name", PatientRecordSubmission{PatientID: "PAT-001", DiagnosisCode: "J18.9", Physician: "Dr. Rao"}},
		{"missing diagnosis", PatientRecordSubmission{PatientID: "PAT-001", FullName: "Jordan Doe", Physician: "Dr. Rao"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := bridge.SubmitPatientRecord(ctx, tc.sub)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}

	_, err := m.Get(ctx, mirror.KindPatientRecord, "PAT-001")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestWorkerDrainsFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge, m := newBridge()
	feed := make(chan ledger.Event, 4)
	worker := NewWorker(feed, bridge, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	feed <- policyRegistered(1)
	feed <- claimSubmitted(2)

	require.Eventually(t, func() bool {
		_, err := m.Get(ctx, mirror.KindClaimRequest, "clm-1")
		return err == nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

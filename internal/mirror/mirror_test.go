package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "insurechain/pkg/domain-errors"
)

func TestInMemoryStorePut(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	ref := uuid.New()

	created, err := s.Put(ctx, KindClaimRequest, "claim-1", map[string]any{"status": "pending"}, ref)
	require.NoError(t, err)
	assert.True(t, created)

	first, err := s.Get(ctx, KindClaimRequest, "claim-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", first.Payload["status"])
	assert.Equal(t, ref, first.AuthoritativeRef)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)

	time.Sleep(time.Millisecond)

	created, err = s.Put(ctx, KindClaimRequest, "claim-1", map[string]any{"status": "approved"}, ref)
	require.NoError(t, err)
	assert.False(t, created, "replacement is not a new record")

	second, err := s.Get(ctx, KindClaimRequest, "claim-1")
	require.NoError(t, err)
	assert.Equal(t, "approved", second.Payload["status"])
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "replacement keeps the original timestamp")
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestInMemoryStorePutRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	_, err := s.Put(ctx, RecordKind("bogus"), "id", nil, uuid.Nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.Put(ctx, KindPatientRecord, "", nil, uuid.Nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestInMemoryStoreGetMisses(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	_, err := s.Put(ctx, KindClaimRequest, "claim-1", nil, uuid.Nil)
	require.NoError(t, err)

	_, err = s.Get(ctx, KindClaimRequest, "other")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	// Same id under a different kind is a different record.
	_, err = s.Get(ctx, KindPatientRecord, "claim-1")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestInMemoryStoreQueryByField(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	_, err := s.Put(ctx, KindPatientRecord, "p-1", map[string]any{"patient_id": "PAT-1"}, uuid.Nil)
	require.NoError(t, err)
	_, err = s.Put(ctx, KindPatientRecord, "p-2", map[string]any{"patient_id": "PAT-2"}, uuid.Nil)
	require.NoError(t, err)
	_, err = s.Put(ctx, KindClaimRequest, "c-1", map[string]any{"patient_id": "PAT-1"}, uuid.Nil)
	require.NoError(t, err)

	got, err := s.QueryByField(ctx, KindPatientRecord, "patient_id", "PAT-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p-1", got[0].ID)

	got, err = s.QueryByField(ctx, KindPatientRecord, "patient_id", "PAT-9")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoredRecordsAreIsolatedFromCallers(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	payload := map[string]any{"status": "pending"}
	_, err := s.Put(ctx, KindClaimRequest, "claim-1", payload, uuid.Nil)
	require.NoError(t, err)

	payload["status"] = "mutated"

	got, err := s.Get(ctx, KindClaimRequest, "claim-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Payload["status"])

	got.Payload["status"] = "mutated again"
	again, err := s.Get(ctx, KindClaimRequest, "claim-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", again.Payload["status"])
}

type staticNames []string

func (n staticNames) Names(ctx context.Context) ([]string, error) { return n, nil }

func TestServiceStatus(t *testing.T) {
	ctx := context.Background()
	svc := New(NewInMemoryStore(), "general-hospital", WithNameSource(staticNames{"acme-insurance", "general-hospital"}))

	require.NoError(t, svc.Put(ctx, KindPatientRecord, "p-1", map[string]any{"patient_id": "PAT-1"}, uuid.Nil))
	require.NoError(t, svc.Put(ctx, KindClaimRequest, "c-1", map[string]any{"status": "pending"}, uuid.New()))
	require.NoError(t, svc.Put(ctx, KindClaimRequest, "c-1", map[string]any{"status": "approved"}, uuid.New()))

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "general-hospital", status.Organization)
	assert.Equal(t, 1, status.Records[KindPatientRecord])
	assert.Equal(t, 1, status.Records[KindClaimRequest], "replacement does not grow the count")
	assert.Equal(t, []string{"acme-insurance", "general-hospital"}, status.Organizations)
	assert.GreaterOrEqual(t, status.Host.Goroutines, 1)
}

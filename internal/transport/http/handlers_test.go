package httptransport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insurechain/internal/ledger"
	"insurechain/internal/ledger/journal"
	ledgerstore "insurechain/internal/ledger/store"
	"insurechain/internal/mirror"
	"insurechain/internal/party"
	"insurechain/internal/platform/logger"
	"insurechain/internal/syncbridge"
	httptransport "insurechain/internal/transport/http"
)

type testEnv struct {
	server        *httptest.Server
	mirror        *mirror.Service
	insurerToken  string
	hospitalToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.New("error")

	tokens := party.NewTokenService("test-signing-key", "insurechain-test", time.Hour)
	partySvc := party.New(party.NewInMemoryStore(), tokens, party.WithLogger(log))

	feed := make(chan ledger.Event, 64)
	emitter := ledger.NewEmitter(journal.NewInMemoryJournal(), feed)
	ledgerSvc := ledger.New(ledgerstore.NewInMemoryStore(), emitter, ledger.WithLogger(log))

	mirrorSvc := mirror.New(mirror.NewInMemoryStore(), "general-hospital", mirror.WithLogger(log))
	bridge := syncbridge.NewBridge(mirrorSvc, syncbridge.WithLogger(log))

	ctx := context.Background()
	worker := syncbridge.NewWorker(feed, bridge, log)
	go func() { _ = worker.Run(ctx) }()

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Ledger:    ledgerSvc,
		Mirror:    mirrorSvc,
		Bridge:    bridge,
		Party:     partySvc,
		Validator: tokens,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	env := &testEnv{server: server, mirror: mirrorSvc}
	env.register(t, "acme-insurance", "insurer", "insurer-secret")
	env.register(t, "general-hospital", "hospital", "hospital-secret")
	env.insurerToken = env.login(t, "acme-insurance", "insurer-secret")
	env.hospitalToken = env.login(t, "general-hospital", "hospital-secret")
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (e *testEnv) register(t *testing.T, name, role, secret string) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "role": role, "secret": secret,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (e *testEnv) login(t *testing.T, name, secret string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"name": name, "secret": secret,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token string `json:"token"`
	}
	decode(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (e *testEnv) registerPolicy(t *testing.T, holder string) string {
	t.Helper()
	now := time.Now().UTC()
	resp := e.do(t, http.MethodPost, "/ledger/policies", e.insurerToken, map[string]any{
		"holder":         holder,
		"insured_amount": 10,
		"premium":        1,
		"start_date":     now.Add(-time.Hour),
		"end_date":       now.AddDate(1, 0, 0),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var policy struct {
		ID string `json:"id"`
	}
	decode(t, resp, &policy)
	require.NotEmpty(t, policy.ID)
	return policy.ID
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginRejectsBadSecret(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"name": "acme-insurance", "secret": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLedgerRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/ledger/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/ledger/stats", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPolicyLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	policyID := env.registerPolicy(t, "general-hospital")

	// Hospitals cannot register policies.
	resp := env.do(t, http.MethodPost, "/ledger/policies", env.hospitalToken, map[string]any{
		"holder": "general-hospital", "insured_amount": 10, "premium": 1,
		"start_date": time.Now(), "end_date": time.Now().AddDate(1, 0, 0),
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/ledger/policies/"+policyID, env.hospitalToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var policy struct {
		Holder   string `json:"holder"`
		IsActive bool   `json:"is_active"`
	}
	decode(t, resp, &policy)
	assert.Equal(t, "general-hospital", policy.Holder)
	assert.True(t, policy.IsActive)

	resp = env.do(t, http.MethodGet, "/ledger/policies/unknown", env.insurerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/ledger/policies/"+policyID+"/deactivate", env.insurerToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Second deactivation is rejected.
	resp = env.do(t, http.MethodPost, "/ledger/policies/"+policyID+"/deactivate", env.insurerToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClaimLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	policyID := env.registerPolicy(t, "general-hospital")

	resp := env.do(t, http.MethodPost, "/ledger/claims", env.hospitalToken, map[string]any{
		"policy_id": policyID, "amount": 3, "description": "x-ray",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var claim struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, resp, &claim)
	assert.Equal(t, "pending", claim.Status)

	// Only the policy holder may claim.
	resp = env.do(t, http.MethodPost, "/ledger/claims", env.insurerToken, map[string]any{
		"policy_id": policyID, "amount": 3,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Processing is insurer-only.
	resp = env.do(t, http.MethodPost, "/ledger/claims/"+claim.ID+"/process", env.hospitalToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/ledger/claims/"+claim.ID+"/process", env.insurerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var processed struct {
		Approved bool `json:"approved"`
	}
	decode(t, resp, &processed)
	assert.True(t, processed.Approved)

	// Exactly once.
	resp = env.do(t, http.MethodPost, "/ledger/claims/"+claim.ID+"/process", env.insurerToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The mirror converges on the processed claim.
	require.Eventually(t, func() bool {
		record, err := env.mirror.Get(context.Background(), mirror.KindClaimRequest, claim.ID)
		return err == nil && record.Payload["status"] == "approved"
	}, time.Second, 5*time.Millisecond)

	resp = env.do(t, http.MethodGet, "/mirror/records/claim_request/"+claim.ID, env.hospitalToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/ledger/stats", env.insurerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats struct {
		TotalPolicies  uint64 `json:"total_policies"`
		TotalClaims    uint64 `json:"total_claims"`
		ApprovedClaims int    `json:"approved_claims"`
	}
	decode(t, resp, &stats)
	assert.Equal(t, uint64(1), stats.TotalPolicies)
	assert.Equal(t, uint64(1), stats.TotalClaims)
	assert.Equal(t, 1, stats.ApprovedClaims)
}

func TestMirrorEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/mirror/patient-records", env.hospitalToken, map[string]string{
		"patient_id": "PAT-001", "full_name": "Jordan Doe",
		"diagnosis_code": "J18.9", "physician": "Dr. Asha Rao",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Insurers cannot submit patient records.
	resp = env.do(t, http.MethodPost, "/mirror/patient-records", env.insurerToken, map[string]string{
		"patient_id": "PAT-002", "full_name": "A", "diagnosis_code": "B", "physician": "C",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Schema violations are rejected.
	resp = env.do(t, http.MethodPost, "/mirror/patient-records", env.hospitalToken, map[string]string{
		"patient_id": "001", "full_name": "Jordan Doe",
		"diagnosis_code": "J18.9", "physician": "Dr. Asha Rao",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/mirror/records/patient_record/PAT-001", env.hospitalToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var record struct {
		Payload map[string]any `json:"payload"`
	}
	decode(t, resp, &record)
	assert.Equal(t, "Jordan Doe", record.Payload["full_name"])

	resp = env.do(t, http.MethodGet, "/mirror/records/bogus/PAT-001", env.hospitalToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	path := fmt.Sprintf("/mirror/records/patient_record?field=%s&value=%s", "patient_id", "PAT-001")
	resp = env.do(t, http.MethodGet, path, env.hospitalToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []struct {
		ID string `json:"id"`
	}
	decode(t, resp, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "PAT-001", records[0].ID)

	resp = env.do(t, http.MethodGet, "/mirror/status", env.hospitalToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status struct {
		Organization  string         `json:"organization"`
		Records       map[string]int `json:"records"`
		Organizations []string       `json:"organizations"`
	}
	decode(t, resp, &status)
	assert.Equal(t, "general-hospital", status.Organization)
	assert.Equal(t, 1, status.Records["patient_record"])
}

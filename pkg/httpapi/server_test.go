package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldera-labs/sentryagent/pkg/adapter"
	"github.com/caldera-labs/sentryagent/pkg/llmclient"
	"github.com/caldera-labs/sentryagent/pkg/orchestrator"
	"github.com/caldera-labs/sentryagent/pkg/plugin"
	"github.com/caldera-labs/sentryagent/pkg/policy"
	"github.com/caldera-labs/sentryagent/pkg/queue"
)

type stubAdapter struct {
	info   adapter.Info
	result *adapter.Result
}

func (s *stubAdapter) GetInfo() adapter.Info                      { return s.info }
func (s *stubAdapter) ValidateParams(params map[string]any) error { return nil }
func (s *stubAdapter) Execute(ctx context.Context, params map[string]any) (*adapter.Result, error) {
	return s.result, nil
}

type nopLLM struct{}

func (nopLLM) Generate(_ context.Context, _ llmclient.GenerateInput) (*llmclient.GenerateOutput, error) {
	return nil, errors.New("no LLM in tests")
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pe := policy.NewEngine(policy.Config{
		AuthorizedNetworks:  []string{"192.168.1.0/24"},
		AuthorizedDomains:   []string{"example.com"},
		GlobalMaxPerMinute:  100,
		DefaultMaxPerMinute: 100,
	})
	am := adapter.NewManager()
	am.Register("whois", func() adapter.Adapter {
		return &stubAdapter{
			info:   adapter.Info{Name: "whois"},
			result: &adapter.Result{Status: adapter.ResultSuccess, RawOutput: "whois output"},
		}
	})
	mgr := plugin.NewManager(am, pe)
	orch := orchestrator.New(mgr, pe, nopLLM{})
	pool := queue.NewWorkerPool(1, 4)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	return NewServer(orch, pool, pe)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_AddAsset_Authorized(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/assets", addAssetRequest{
		Name: "host-1", Kind: "host", Target: "192.168.1.50",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestServer_AddAsset_UnauthorizedRejected(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/assets", addAssetRequest{
		Name: "evil", Kind: "domain", Target: "evil.example.org",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_AddAsset_MissingFieldRejected(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/assets", map[string]any{"name": "incomplete"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_RunPassiveRecon_AcceptsJob(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/scans/passive", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "passive-recon", resp["job_id"])
}

func TestServer_PlanActiveScans_ReturnsSteps(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/scans/active", planActiveScansRequest{
		Mode: "active", Target: "192.168.1.50",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Steps []orchestrator.WorkflowStep `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Steps)
}

func TestServer_GetReport_ReturnsSummary(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/report", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_GetPolicyRates_ReturnsCounts(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/policy/rates?adapter=nmap", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "nmap", resp["adapter"])
}

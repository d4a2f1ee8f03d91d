// Package httpapi is the control-plane surface for submitting assets,
// triggering scan-workflow phases, and fetching reports, grounded on
// tarsy's pkg/api/handlers.go gin-based Server.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caldera-labs/sentryagent/pkg/orchestrator"
	"github.com/caldera-labs/sentryagent/pkg/policy"
	"github.com/caldera-labs/sentryagent/pkg/queue"
)

// Server is the HTTP control surface wrapping one Orchestrator run.
type Server struct {
	router *gin.Engine
	orch   *orchestrator.Orchestrator
	pool   *queue.WorkerPool
	policy *policy.Engine
}

// NewServer constructs a Server and registers its routes, grounded on
// tarsy's pkg/api/handlers.go NewServer.
func NewServer(orch *orchestrator.Orchestrator, pool *queue.WorkerPool, policyEngine *policy.Engine) *Server {
	router := gin.Default()
	s := &Server{router: router, orch: orch, pool: pool, policy: policyEngine}
	s.registerRoutes()
	return s
}

// Router exposes the underlying gin.Engine (e.g. for http.Server or tests).
func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.health)
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/assets", s.addAsset)
		v1.POST("/scans/passive", s.runPassiveRecon)
		v1.POST("/scans/active", s.planActiveScans)
		v1.POST("/scans/step", s.executeScanStep)
		v1.GET("/report", s.getReport)
		v1.GET("/policy/rates", s.getPolicyRates)
	}
}

// health handles GET /health, mirroring tarsy's handlers.go Health.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// addAssetRequest is the body of POST /api/v1/assets.
type addAssetRequest struct {
	Name   string   `json:"name" binding:"required"`
	Kind   string   `json:"kind" binding:"required"`
	Target string   `json:"target" binding:"required"`
	Tags   []string `json:"tags"`
}

// addAsset handles POST /api/v1/assets.
func (s *Server) addAsset(c *gin.Context) {
	var req addAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset := policy.Asset{Kind: policy.AssetKind(req.Kind), Target: req.Target, Tags: req.Tags}
	if err := s.orch.AddAsset(asset); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"name": req.Name, "status": "authorized"})
}

// runPassiveRecon handles POST /api/v1/scans/passive, dispatching the whole
// passive sweep as a background job through the worker pool.
func (s *Server) runPassiveRecon(c *gin.Context) {
	job := s.pool.Submit("passive-recon", func(ctx context.Context) error {
		s.orch.RunPassiveRecon(ctx)
		return nil
	})
	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": string(job.Status())})
}

// planActiveScansRequest is the body of POST /api/v1/scans/active.
type planActiveScansRequest struct {
	Mode   string `json:"mode" binding:"required"`
	Target string `json:"target" binding:"required"`
}

// planActiveScans handles POST /api/v1/scans/active, returning the planned
// steps without executing them — execution is a separate, explicitly
// approved call to executeScanStep.
func (s *Server) planActiveScans(c *gin.Context) {
	var req planActiveScansRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	steps := s.orch.PlanActiveScans(c.Request.Context(), orchestrator.ScanMode(req.Mode), req.Target)
	c.JSON(http.StatusOK, gin.H{"steps": steps})
}

// executeScanStepRequest is the body of POST /api/v1/scans/step.
type executeScanStepRequest struct {
	Tool       string         `json:"tool" binding:"required"`
	Target     string         `json:"target" binding:"required"`
	Parameters map[string]any `json:"parameters"`
	Mode       string         `json:"mode" binding:"required"`
}

// executeScanStep handles POST /api/v1/scans/step.
func (s *Server) executeScanStep(c *gin.Context) {
	var req executeScanStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	step := orchestrator.WorkflowStep{Tool: req.Tool, Target: req.Target, Parameters: req.Parameters}
	result, err := s.orch.ExecuteScanStep(c.Request.Context(), step, orchestrator.ScanMode(req.Mode), nil)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// getReport handles GET /api/v1/report.
func (s *Server) getReport(c *gin.Context) {
	c.JSON(http.StatusOK, s.orch.GenerateReport())
}

// getPolicyRates handles GET /api/v1/policy/rates, grounded on
// SPEC_FULL.md §2 item 2a's current-rate introspection endpoint. Rates are
// keyed by adapter/tool name (spec.md §4.3's RateWindow keys), not by scan
// target.
func (s *Server) getPolicyRates(c *gin.Context) {
	adapterName := c.Query("adapter")
	global, adapterRate := s.policy.CurrentRates(adapterName)
	c.JSON(http.StatusOK, gin.H{"global_rate": global, "adapter": adapterName, "adapter_rate": adapterRate})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"project_partner_backend/internal/logger"
	"project_partner_backend/internal/session"
	"project_partner_backend/internal/stages"
)

// SessionIDKey is the gin context key under which the session middleware
// stores the client's session identity.
const SessionIDKey = "session_id"

// WorkflowHandler exposes the three workflow stages over HTTP, loading and
// persisting session state at the request boundary.
type WorkflowHandler struct {
	seq   *stages.Sequencer
	store session.Store
}

// NewWorkflowHandler wires the handler with its collaborators.
func NewWorkflowHandler(seq *stages.Sequencer, store session.Store) *WorkflowHandler {
	return &WorkflowHandler{seq: seq, store: store}
}

// Index serves the front page.
func (h *WorkflowHandler) Index(c *gin.Context) {
	c.File("static/index.html")
}

// HealthCheck reports process liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type kickoffRequest struct {
	ProjectDetails string `json:"project_details"`
}

// KickoffCrew handles POST /kickoff_crew (Stage 1).
func (h *WorkflowHandler) KickoffCrew(c *gin.Context) {
	var req kickoffRequest
	// A missing or malformed body falls through to the empty-details
	// precondition check inside the stage.
	_ = c.ShouldBindJSON(&req)

	h.runStage(c, "Stage 1", func(state *session.State) (*stages.Result, error) {
		return h.seq.Plan(c.Request.Context(), state, req.ProjectDetails)
	})
}

// GenerateBOM handles POST /generate_bom (Stage 2).
func (h *WorkflowHandler) GenerateBOM(c *gin.Context) {
	h.runStage(c, "Stage 2", func(state *session.State) (*stages.Result, error) {
		return h.seq.GenerateBOM(c.Request.Context(), state)
	})
}

// GenerateFinalAssets handles POST /generate_final_assets (Stage 3).
func (h *WorkflowHandler) GenerateFinalAssets(c *gin.Context) {
	h.runStage(c, "Stage 3", func(state *session.State) (*stages.Result, error) {
		return h.seq.GenerateFinalAssets(c.Request.Context(), state)
	})
}

// runStage loads session state, runs one stage against it, persists or clears
// the state per the outcome, and converts every failure to the uniform error
// envelope. No stage failure propagates to the transport layer.
func (h *WorkflowHandler) runStage(c *gin.Context, stage string, run func(*session.State) (*stages.Result, error)) {
	ctx := c.Request.Context()
	sessionID := c.GetString(SessionIDKey)

	state, err := h.store.Get(ctx, sessionID)
	if err != nil {
		logger.Error().Err(err).Str("stage", stage).Msg("Failed to load session state")
		respondStageError(c, stage, err)
		return
	}

	result, err := run(state)
	if err != nil {
		var pre *stages.PreconditionError
		if errors.As(err, &pre) {
			respondPrecondition(c, pre)
			return
		}
		logger.Error().Err(err).Str("stage", stage).Msg("Stage failed")
		respondStageError(c, stage, err)
		return
	}

	if result.Completed {
		if err := h.store.Clear(ctx, sessionID); err != nil {
			logger.Error().Err(err).Msg("Failed to clear session state")
			respondStageError(c, stage, err)
			return
		}
	} else {
		if err := h.store.Save(ctx, sessionID, state); err != nil {
			logger.Error().Err(err).Msg("Failed to save session state")
			respondStageError(c, stage, err)
			return
		}
	}

	respondOK(c, result)
}

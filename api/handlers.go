package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mevshield/mevshield/pkg/models"
)

// ProtectRequest is the protected-trade submission payload.
type ProtectRequest struct {
	RawTransaction string `json:"raw_transaction" validate:"required"`
}

// SimulateRequest is the trade-analysis payload. An empty description
// is allowed; the analyzer still returns a well-formed assessment.
type SimulateRequest struct {
	Description string `json:"description"`
}

// healthCheck returns service health status
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getStatus reports the live feed and protection state.
func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"protection_active": true,
		"connected_clients": s.hub.ClientCount(),
	})
}

// submitProtectedTrade accepts a raw transaction for protected relay.
// Bad input maps to 400, a store failure to 500; neither response leaks
// the underlying cause.
func (s *Server) submitProtectedTrade(c *gin.Context) {
	var req ProtectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.SubmissionResult{
			Success: false,
			Message: "raw transaction is required",
		})
		return
	}
	// Blank input is a client error; validator's required tag only
	// rejects the zero value, so whitespace is checked here too.
	if err := validate.Struct(&req); err != nil || strings.TrimSpace(req.RawTransaction) == "" {
		c.JSON(http.StatusBadRequest, models.SubmissionResult{
			Success: false,
			Message: "raw transaction is required",
		})
		return
	}

	result := s.submission.Submit(c.Request.Context(), req.RawTransaction)
	if !result.Success {
		c.JSON(http.StatusInternalServerError, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// analyzeTradeDescription scores a described trade. This endpoint never
// fails: the analyzer degrades to a fallback assessment internally.
func (s *Server) analyzeTradeDescription(c *gin.Context) {
	var req SimulateRequest
	// An absent body is treated as an empty description; the analyzer
	// handles it like any other input.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	assessment := s.analyzer.Analyze(c.Request.Context(), req.Description)
	c.JSON(http.StatusOK, assessment)
}

// triggerSyntheticAttack generates one synthetic event and broadcasts
// it to every connected feed session.
func (s *Server) triggerSyntheticAttack(c *gin.Context) {
	event := s.generator.Generate()
	s.hub.Broadcast(event)

	s.logger.Debug("Synthetic attack triggered",
		zap.Uint64("event_id", event.ID),
		zap.String("method", event.Method))

	c.JSON(http.StatusOK, gin.H{"triggered": true, "event_id": event.ID})
}

// getRecentTrades returns the most recent protected trades.
func (s *Server) getRecentTrades(c *gin.Context) {
	trades, err := s.submission.RecentTrades(c.Request.Context(), 50)
	if err != nil {
		s.logger.Error("Failed to load recent trades", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load trades"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

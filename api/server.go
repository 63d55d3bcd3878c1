// Package api wires the HTTP and websocket boundary to the core
// services.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mevshield/mevshield/pkg/models"
)

var validate = validator.New()

// SubmissionService is the trade submission pipeline.
type SubmissionService interface {
	Submit(ctx context.Context, rawTransaction string) models.SubmissionResult
	RecentTrades(ctx context.Context, limit int) ([]*models.ProtectedTrade, error)
}

// RiskAnalyzer scores trade descriptions.
type RiskAnalyzer interface {
	Analyze(ctx context.Context, tradeText string) models.RiskAssessment
}

// EventGenerator produces synthetic attack events.
type EventGenerator interface {
	Generate() models.AttackEvent
}

// FeedHub fans events out to connected sessions.
type FeedHub interface {
	Broadcast(event models.AttackEvent)
	ServeWS(w http.ResponseWriter, r *http.Request)
	ClientCount() int
}

// Server represents the API server
type Server struct {
	router     *gin.Engine
	logger     *zap.Logger
	submission SubmissionService
	analyzer   RiskAnalyzer
	generator  EventGenerator
	hub        FeedHub
}

// NewServer creates a new API server with injected service interfaces
func NewServer(
	logger *zap.Logger,
	submission SubmissionService,
	analyzer RiskAnalyzer,
	generator EventGenerator,
	hub FeedHub,
) *Server {
	server := &Server{
		logger:     logger,
		submission: submission,
		analyzer:   analyzer,
		generator:  generator,
		hub:        hub,
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	server.router = router
	server.registerRoutes()
	return server
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router returns the internal Gin engine for testing purposes
func (s *Server) Router() *gin.Engine {
	return s.router
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	public := s.router.Group("/api/v1")
	{
		public.GET("/metrics", gin.WrapH(promhttp.Handler()))
		public.GET("/health", s.healthCheck)
		public.GET("/status", s.getStatus)

		public.POST("/protect", s.submitProtectedTrade)
		public.POST("/simulate", s.analyzeTradeDescription)
		public.POST("/attacks/trigger", s.triggerSyntheticAttack)
		public.GET("/trades", s.getRecentTrades)

		public.GET("/ws", func(c *gin.Context) {
			s.hub.ServeWS(c.Writer, c.Request)
		})
	}
}

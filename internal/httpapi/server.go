// Package httpapi exposes the trade ledger and valuation engine over HTTP.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"londonstock/internal/audit"
	"londonstock/internal/auth"
	"londonstock/internal/ledger"
	"londonstock/internal/valuation"
)

// brokerIDKey is the gin context key under which the auth middleware
// stores the verified broker identity.
const brokerIDKey = "broker_id"

// Server wires the router, services, and middleware.
type Server struct {
	R         *gin.Engine
	Validator *auth.Validator
	Issuer    *auth.Issuer
	Gate      *auth.Gate
	Ledger    *ledger.Ledger
	Valuation *valuation.Engine
	Audit     *audit.Logger // nil disables auditing
	Logger    zerolog.Logger
}

// apiError is the wire shape for every error response.
type apiError struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NewServer builds the gin engine with logging, recovery, and all routes.
func NewServer(validator *auth.Validator, issuer *auth.Issuer, gate *auth.Gate, l *ledger.Ledger, v *valuation.Engine, auditLog *audit.Logger, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()

	// Request logging
	g.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("http_request")
	})

	g.Use(gin.Recovery())

	s := &Server{
		R:         g,
		Validator: validator,
		Issuer:    issuer,
		Gate:      gate,
		Ledger:    l,
		Valuation: v,
		Audit:     auditLog,
		Logger:    logger,
	}

	g.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	g.POST("/auth/token", s.generateToken)

	authed := g.Group("/", s.requireToken)
	authed.GET("/stocks/:ticker/value", s.getStockValue)
	authed.GET("/stocks/values", s.getAllStockValues)
	authed.GET("/stocks/values/range", s.getStockValuesForRange)
	authed.POST("/trades", s.recordTrade)

	return s
}

// requireToken verifies the bearer token and stores the broker identity in
// the request context. Every verification failure maps to the same 401
// body, regardless of cause.
func (s *Server) requireToken(c *gin.Context) {
	raw := bearerToken(c.GetHeader("Authorization"))

	brokerID, err := s.Gate.VerifyToken(raw)
	if err != nil {
		s.Logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Token verification failed")
		s.auditEvent(audit.Event{EventType: audit.EventAuthFailed, IPAddress: c.ClientIP()})
		c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Message: "unauthorized"})
		return
	}

	c.Set(brokerIDKey, brokerID)
	c.Next()
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Message: msg})
}

func (s *Server) internalError(c *gin.Context, where string, err error) {
	s.Logger.Error().Err(err).Str("where", where).Msg("internal_error")
	c.JSON(http.StatusInternalServerError, apiError{Message: "internal server error"})
}

// auditEvent records an audit event, logging (but otherwise ignoring) any
// write failure so auditing cannot fail a request.
func (s *Server) auditEvent(event audit.Event) {
	if err := s.Audit.Log(event); err != nil {
		s.Logger.Warn().Err(err).Msg("Failed to write audit event")
	}
}

package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"londonstock/internal/audit"
	"londonstock/internal/errors"
	"londonstock/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}

type tradeResponse struct {
	TradeID string `json:"tradeId"`
	Message string `json:"message"`
}

// generateToken validates demo credentials and mints a bearer token.
func (s *Server) generateToken(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		s.badRequest(c, "invalid login data")
		return
	}

	user, ok := s.Validator.Validate(req.Username, req.Password)
	if !ok {
		s.auditEvent(audit.Event{EventType: audit.EventAuthFailed, IPAddress: c.ClientIP()})
		// Same response for unknown user and wrong password.
		c.JSON(http.StatusUnauthorized, apiError{Message: "invalid username or password"})
		return
	}

	token, expiry, err := s.Issuer.Issue(user)
	if err != nil {
		s.internalError(c, "Issue", err)
		return
	}

	s.Logger.Info().
		Str("event", "token_issued").
		Str("username", user.Username).
		Time("expiry", expiry).
		Msg("Token issued")
	s.auditEvent(audit.Event{
		EventType: audit.EventTokenIssued,
		BrokerID:  user.Username,
		Success:   true,
		IPAddress: c.ClientIP(),
	})

	c.JSON(http.StatusOK, tokenResponse{Token: token, Expiry: expiry})
}

// getStockValue returns the current value for a single ticker.
func (s *Server) getStockValue(c *gin.Context) {
	ticker := strings.TrimSpace(c.Param("ticker"))
	if ticker == "" {
		s.badRequest(c, "ticker symbol cannot be empty")
		return
	}

	value, err := s.Valuation.ValueOf(c.Request.Context(), ticker)
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrNoTrades):
			c.JSON(http.StatusNotFound, apiError{Message: "no trades found for ticker symbol '" + ticker + "'"})
		case errors.IsValidation(err):
			s.badRequest(c, "ticker symbol cannot be empty")
		default:
			s.internalError(c, "ValueOf", err)
		}
		return
	}

	c.JSON(http.StatusOK, value)
}

// getAllStockValues returns values for every ticker in the ledger.
func (s *Server) getAllStockValues(c *gin.Context) {
	values, err := s.Valuation.AllValues(c.Request.Context())
	if err != nil {
		s.internalError(c, "AllValues", err)
		return
	}
	if values == nil {
		values = []models.StockValue{}
	}
	c.JSON(http.StatusOK, values)
}

// getStockValuesForRange returns values for a comma-separated ticker list.
// Tickers with no trades are omitted rather than erroring.
func (s *Server) getStockValuesForRange(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("tickers"))
	if raw == "" {
		s.badRequest(c, "tickers query parameter cannot be empty")
		return
	}

	values, err := s.Valuation.ValuesFor(c.Request.Context(), strings.Split(raw, ","))
	if err != nil {
		if errors.IsValidation(err) {
			s.badRequest(c, "no valid ticker symbols provided")
			return
		}
		s.internalError(c, "ValuesFor", err)
		return
	}
	if values == nil {
		values = []models.StockValue{}
	}
	c.JSON(http.StatusOK, values)
}

// recordTrade records a new trade under the authenticated broker identity.
// Any brokerId in the payload is ignored.
func (s *Server) recordTrade(c *gin.Context) {
	var input models.TradeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.badRequest(c, "invalid trade data provided")
		return
	}

	brokerID := c.GetString(brokerIDKey)
	if brokerID == "" {
		c.JSON(http.StatusUnauthorized, apiError{Message: "unable to identify broker from token"})
		return
	}

	tradeID, err := s.Ledger.Record(c.Request.Context(), input, brokerID)
	if err != nil {
		s.auditEvent(audit.Event{
			EventType: audit.EventTradeRejected,
			BrokerID:  brokerID,
			Ticker:    input.TickerSymbol,
			ErrorMsg:  err.Error(),
			IPAddress: c.ClientIP(),
		})
		var ve *errors.ValidationError
		switch {
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, apiError{Message: ve.Message})
		case errors.IsPersistence(err):
			s.Logger.Error().Err(err).Str("ticker", input.TickerSymbol).Msg("Failed to record trade")
			c.JSON(http.StatusInternalServerError, apiError{Message: "failed to record trade"})
		default:
			s.internalError(c, "Record", err)
		}
		return
	}

	s.auditEvent(audit.Event{
		EventType: audit.EventTradeRecorded,
		BrokerID:  brokerID,
		Ticker:    input.TickerSymbol,
		TradeID:   tradeID,
		Success:   true,
		IPAddress: c.ClientIP(),
	})
	c.JSON(http.StatusCreated, tradeResponse{TradeID: tradeID, Message: "Trade recorded successfully."})
}

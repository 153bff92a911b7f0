package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/easyfinance/accounts/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AccountsService is what the handler needs from the accounts service.
type AccountsService interface {
	Overview(ctx context.Context) (*domain.Overview, error)
	Replace(ctx context.Context, banks []domain.BankInput, publicToken string) (*domain.Overview, error)
}

// replaceRequest is the PUT /accounts body.
type replaceRequest struct {
	Banks       []domain.BankInput `json:"banks"`
	PublicToken string             `json:"publicToken"`
}

// AccountsHandler serves /accounts.
type AccountsHandler struct {
	svc AccountsService
}

func NewAccountsHandler(svc AccountsService) *AccountsHandler {
	return &AccountsHandler{svc: svc}
}

// Dispatch routes a request by method. Only GET and PUT are served.
func (h *AccountsHandler) Dispatch(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet:
		h.get(c)
	case http.MethodPut:
		h.put(c)
	default:
		c.Header("Allow", "GET, PUT")
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	}
}

func (h *AccountsHandler) get(c *gin.Context) {
	overview, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Failed to build accounts overview")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load accounts"})
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *AccountsHandler) put(c *gin.Context) {
	ctx := c.Request.Context()

	var req replaceRequest
	// An empty body is treated as an empty bank list.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Malformed accounts body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if req.Banks == nil {
		req.Banks = []domain.BankInput{}
	}

	overview, err := h.svc.Replace(ctx, req.Banks, req.PublicToken)
	if errors.Is(err, domain.ErrInvalidBanks) {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Rejected bank list")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to replace banks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update accounts"})
		return
	}
	c.JSON(http.StatusOK, overview)
}

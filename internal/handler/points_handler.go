package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greentrace/greentrace-api/internal/middleware"
	"github.com/greentrace/greentrace-api/internal/service"
	appErrors "github.com/greentrace/greentrace-api/pkg/errors"
	"github.com/greentrace/greentrace-api/pkg/response"
)

// PointsHandler exposes green points endpoints.
type PointsHandler struct {
	service *service.PointsService
}

// NewPointsHandler creates a new handler.
func NewPointsHandler(svc *service.PointsService) *PointsHandler {
	return &PointsHandler{service: svc}
}

// Balance godoc
// @Summary Get green points balance
// @Tags Green Points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /green-points/balance [get]
func (h *PointsHandler) Balance(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	balance, err := h.service.Balance(c.Request.Context(), claims.CompanyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"company_id": claims.CompanyID, "green_points": balance}, nil)
}

// History godoc
// @Summary List points transactions
// @Description Paged points ledger for the authenticated company, newest first
// @Tags Green Points
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /green-points/history [get]
func (h *PointsHandler) History(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, pageSize := pageParams(c)
	transactions, pagination, err := h.service.History(c.Request.Context(), claims.CompanyID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, transactions, pagination)
}

// Transactions godoc
// @Summary List the full points ledger
// @Tags Green Points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /green-points/transactions [get]
func (h *PointsHandler) Transactions(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	transactions, err := h.service.AllTransactions(c.Request.Context(), claims.CompanyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, transactions, nil)
}

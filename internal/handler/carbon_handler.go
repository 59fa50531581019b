package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/greentrace/greentrace-api/internal/middleware"
	"github.com/greentrace/greentrace-api/internal/models"
	"github.com/greentrace/greentrace-api/internal/service"
	appErrors "github.com/greentrace/greentrace-api/pkg/errors"
	"github.com/greentrace/greentrace-api/pkg/response"
)

// CarbonHandler exposes carbon footprint endpoints.
type CarbonHandler struct {
	service *service.CarbonService
}

// NewCarbonHandler creates a new handler.
func NewCarbonHandler(svc *service.CarbonService) *CarbonHandler {
	return &CarbonHandler{service: svc}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return page, pageSize
}

// Calculate godoc
// @Summary Calculate a carbon footprint
// @Description Convert one period's activity data into scoped emissions, persist the record and award green points
// @Tags Carbon Footprint
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ActivityInput true "Activity quantities"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /carbon-footprint/calculate [post]
func (h *CarbonHandler) Calculate(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var input models.ActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activity payload"))
		return
	}

	result, err := h.service.Calculate(c.Request.Context(), claims.CompanyID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// History godoc
// @Summary List footprint history
// @Description Paged footprint records for the authenticated company, newest first
// @Tags Carbon Footprint
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /carbon-footprint/history [get]
func (h *CarbonHandler) History(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, pageSize := pageParams(c)
	records, pagination, err := h.service.History(c.Request.Context(), claims.CompanyID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, records, pagination)
}

// AllHistory godoc
// @Summary List full footprint history
// @Tags Carbon Footprint
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /carbon-footprint/history/all [get]
func (h *CarbonHandler) AllHistory(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	records, err := h.service.AllHistory(c.Request.Context(), claims.CompanyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, records, nil)
}

// GetByID godoc
// @Summary Get one footprint record
// @Tags Carbon Footprint
// @Produce json
// @Security BearerAuth
// @Param id path string true "Footprint ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /carbon-footprint/{id} [get]
func (h *CarbonHandler) GetByID(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	record, err := h.service.GetByID(c.Request.Context(), claims.CompanyID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greentrace/greentrace-api/internal/middleware"
	"github.com/greentrace/greentrace-api/internal/models"
	"github.com/greentrace/greentrace-api/internal/service"
	appErrors "github.com/greentrace/greentrace-api/pkg/errors"
	"github.com/greentrace/greentrace-api/pkg/response"
)

// CompanyHandler exposes company profile endpoints.
type CompanyHandler struct {
	service *service.CompanyService
}

// NewCompanyHandler creates a new handler.
func NewCompanyHandler(svc *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{service: svc}
}

// Me godoc
// @Summary Get own company profile
// @Tags Companies
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /companies/me [get]
func (h *CompanyHandler) Me(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	company, err := h.service.Get(c.Request.Context(), claims.CompanyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, company, nil)
}

// UpdateMe godoc
// @Summary Update own company profile
// @Description Partial update; omitted fields are left unchanged
// @Tags Companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpdateCompanyRequest true "Profile changes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /companies/me [put]
func (h *CompanyHandler) UpdateMe(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	company, err := h.service.UpdateProfile(c.Request.Context(), claims.CompanyID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, company, nil)
}

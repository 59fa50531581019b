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

// LeaderboardHandler exposes ranking endpoints.
type LeaderboardHandler struct {
	service *service.LeaderboardService
}

// NewLeaderboardHandler creates a new handler.
func NewLeaderboardHandler(svc *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: svc}
}

func limitParam(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return limit
}

// Top godoc
// @Summary Get the leaderboard head
// @Tags Leaderboard
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of companies"
// @Success 200 {object} response.Envelope
// @Router /leaderboard/top [get]
func (h *LeaderboardHandler) Top(c *gin.Context) {
	companies, err := h.service.TopCompanies(c.Request.Context(), limitParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, companies, nil)
}

// TopByIndustry godoc
// @Summary Get the leaderboard head within one industry
// @Tags Leaderboard
// @Produce json
// @Security BearerAuth
// @Param industry path string true "Industry"
// @Param limit query int false "Number of companies"
// @Success 200 {object} response.Envelope
// @Router /leaderboard/industry/{industry} [get]
func (h *LeaderboardHandler) TopByIndustry(c *gin.Context) {
	industry := models.Industry(c.Param("industry"))
	companies, err := h.service.TopCompaniesByIndustry(c.Request.Context(), industry, limitParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"industry": industry}
	if avg, err := h.service.IndustryAverage(c.Request.Context(), industry); err == nil {
		meta["average_footprint"] = avg
	}
	response.JSON(c, http.StatusOK, companies, nil, meta)
}

// Rankings godoc
// @Summary List ranked companies
// @Description Paged rankings, optionally filtered by industry
// @Tags Leaderboard
// @Produce json
// @Security BearerAuth
// @Param industry query string false "Industry filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leaderboard/rankings [get]
func (h *LeaderboardHandler) Rankings(c *gin.Context) {
	var industry *models.Industry
	if raw := c.Query("industry"); raw != "" {
		value := models.Industry(raw)
		industry = &value
	}

	page, pageSize := pageParams(c)
	companies, pagination, err := h.service.Rankings(c.Request.Context(), industry, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, companies, pagination)
}

// MyRanking godoc
// @Summary Get own leaderboard position
// @Tags Leaderboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /leaderboard/my-ranking [get]
func (h *LeaderboardHandler) MyRanking(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ranking, err := h.service.MyRanking(c.Request.Context(), claims.CompanyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranking, nil)
}

// PublicTop godoc
// @Summary Get the public leaderboard head
// @Description Unauthenticated view of the top companies
// @Tags Leaderboard
// @Produce json
// @Param limit query int false "Number of companies"
// @Success 200 {object} response.Envelope
// @Router /leaderboard/public/top [get]
func (h *LeaderboardHandler) PublicTop(c *gin.Context) {
	companies, err := h.service.TopCompanies(c.Request.Context(), limitParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	// Public view carries only non-sensitive fields.
	type publicEntry struct {
		Rank        int             `json:"rank"`
		CompanyName string          `json:"company_name"`
		Industry    models.Industry `json:"industry"`
		GreenPoints int             `json:"green_points"`
	}
	entries := make([]publicEntry, 0, len(companies))
	for i, company := range companies {
		entries = append(entries, publicEntry{
			Rank:        i + 1,
			CompanyName: company.Name,
			Industry:    company.Industry,
			GreenPoints: company.GreenPoints,
		})
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

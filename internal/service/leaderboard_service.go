package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/greentrace/greentrace-api/internal/models"
	appErrors "github.com/greentrace/greentrace-api/pkg/errors"
)

const (
	leaderboardCachePrefix  = "leaderboard:"
	defaultLeaderboardLimit = 10
)

type rankedCompanyReader interface {
	FindByID(ctx context.Context, id string) (*models.Company, error)
	TopByGreenPoints(ctx context.Context, limit int) ([]models.Company, error)
	TopByIndustry(ctx context.Context, industry models.Industry, limit int) ([]models.Company, error)
	ListRanked(ctx context.Context) ([]models.Company, error)
	ListByIndustry(ctx context.Context, industry models.Industry, page, pageSize int) ([]models.Company, int, error)
	AverageFootprintByIndustry(ctx context.Context, industry models.Industry) (float64, error)
}

// LeaderboardService derives rankings from company point balances. Read-only;
// results reflect the aggregates at query time.
type LeaderboardService struct {
	companies rankedCompanyReader
	cache     *CacheService
	maxLimit  int
	logger    *zap.Logger
}

// NewLeaderboardService constructs a LeaderboardService.
func NewLeaderboardService(companies rankedCompanyReader, cache *CacheService, maxLimit int, logger *zap.Logger) *LeaderboardService {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{companies: companies, cache: cache, maxLimit: maxLimit, logger: logger}
}

func (s *LeaderboardService) clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLeaderboardLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// TopCompanies returns the leaderboard head ordered by descending points.
func (s *LeaderboardService) TopCompanies(ctx context.Context, limit int) ([]models.Company, error) {
	limit = s.clampLimit(limit)
	cacheKey := fmt.Sprintf("%stop:%d", leaderboardCachePrefix, limit)

	var cached []models.Company
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	companies, err := s.companies.TopByGreenPoints(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leaderboard")
	}

	s.cache.Set(ctx, cacheKey, companies)
	return companies, nil
}

// TopCompaniesByIndustry returns the leaderboard head within one industry.
func (s *LeaderboardService) TopCompaniesByIndustry(ctx context.Context, industry models.Industry, limit int) ([]models.Company, error) {
	limit = s.clampLimit(limit)
	cacheKey := fmt.Sprintf("%sindustry:%s:%d", leaderboardCachePrefix, industry, limit)

	var cached []models.Company
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	companies, err := s.companies.TopByIndustry(ctx, industry, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load industry leaderboard")
	}

	s.cache.Set(ctx, cacheKey, companies)
	return companies, nil
}

// Rankings returns a ranked page of companies, optionally filtered by
// industry.
func (s *LeaderboardService) Rankings(ctx context.Context, industry *models.Industry, page, pageSize int) ([]models.Company, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > s.maxLimit {
		pageSize = 20
	}

	if industry != nil {
		companies, total, err := s.companies.ListByIndustry(ctx, *industry, page, pageSize)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rankings")
		}
		return companies, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
	}

	ranked, err := s.companies.ListRanked(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rankings")
	}
	total := len(ranked)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return ranked[start:end], &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// MyRanking returns a company's 1-based position in the full descending
// ordering. Ties follow the same stable order the leaderboard uses.
func (s *LeaderboardService) MyRanking(ctx context.Context, companyID string) (*models.RankingInfo, error) {
	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}

	ranked, err := s.companies.ListRanked(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rankings")
	}

	rank := 1
	for _, c := range ranked {
		if c.ID == company.ID {
			break
		}
		rank++
	}

	return &models.RankingInfo{
		Rank:        rank,
		CompanyID:   company.ID,
		CompanyName: company.Name,
		Industry:    company.Industry,
		GreenPoints: company.GreenPoints,
	}, nil
}

// IndustryAverage returns the mean latest footprint within an industry.
func (s *LeaderboardService) IndustryAverage(ctx context.Context, industry models.Industry) (float64, error) {
	avg, err := s.companies.AverageFootprintByIndustry(ctx, industry)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load industry average")
	}
	return avg, nil
}

// Invalidate drops cached leaderboard entries. Called after every
// calculation so rankings never serve a stale balance beyond the cache TTL.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if err := s.cache.InvalidatePattern(ctx, leaderboardCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate leaderboard cache", zap.Error(err))
	}
}

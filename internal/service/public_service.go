package service

import (
	"context"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
)

const (
	publicStatsKey    = "public:stats"
	publicActivityKey = "public:recent-activity"
)

// PublicService serves the unauthenticated landing page data. Responses are
// shared by every visitor and go through the cache when one is configured.
type PublicService struct {
	api   upstreamAPI
	cache *CacheService
}

// NewPublicService constructs the service. cache may be nil.
func NewPublicService(api upstreamAPI, cache *CacheService) *PublicService {
	return &PublicService{api: api, cache: cache}
}

// Stats returns the platform totals. The boolean reports a cache hit.
func (s *PublicService) Stats(ctx context.Context) (*models.PublicStats, bool, error) {
	return cached(ctx, s.cache, publicStatsKey, func(ctx context.Context) (*models.PublicStats, error) {
		var stats models.PublicStats
		if err := s.api.GetJSON(ctx, upstream.Public, "/public/stats", nil, &stats); err != nil {
			return nil, err
		}
		return &stats, nil
	})
}

// RecentActivity returns the most active courses. The boolean reports a cache hit.
func (s *PublicService) RecentActivity(ctx context.Context) ([]models.PublicRecentActivity, bool, error) {
	return cached(ctx, s.cache, publicActivityKey, func(ctx context.Context) ([]models.PublicRecentActivity, error) {
		out := []models.PublicRecentActivity{}
		if err := s.api.GetJSON(ctx, upstream.Public, "/public/recent-activity", nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}


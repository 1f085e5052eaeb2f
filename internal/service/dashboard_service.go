package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
	"github.com/noah-isme/lms-admin-gateway/pkg/asyncop"
)

// DashboardView is the admin landing page. Each panel fails independently.
type DashboardView struct {
	Stats          []models.DashboardStat  `json:"stats"`
	StatsError     string                  `json:"stats_error,omitempty"`
	RecentActivity []models.RecentActivity `json:"recent_activity"`
	ActivityError  string                  `json:"activity_error,omitempty"`
}

// RetryPolicy is the retry configuration of one-shot page loads.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	Observer asyncop.Observer
	Sleep    asyncop.SleepFunc
}

func (p RetryPolicy) options(name string, logger *zap.Logger) asyncop.Options {
	return asyncop.Options{
		Name:          name,
		RetryAttempts: p.Attempts,
		RetryDelay:    p.Delay,
		Logger:        logger,
		Observer:      p.Observer,
		Sleep:         p.Sleep,
	}
}

// DashboardService loads the admin dashboard.
type DashboardService struct {
	api    upstreamAPI
	retry  RetryPolicy
	logger *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(api upstreamAPI, retry RetryPolicy, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{api: api, retry: retry, logger: logger}
}

// Load fetches stats and recent activity concurrently.
func (s *DashboardService) Load(ctx context.Context) (DashboardView, error) {
	stats := asyncop.New(func(ctx context.Context, _ struct{}) ([]models.DashboardStat, error) {
		var out []models.DashboardStat
		err := s.api.GetJSON(ctx, upstream.Bearer, "/admin/dashboard/stats", nil, &out)
		return out, err
	}, s.retry.options("dashboard_stats", s.logger))
	activity := asyncop.New(func(ctx context.Context, _ struct{}) ([]models.RecentActivity, error) {
		var out []models.RecentActivity
		err := s.api.GetJSON(ctx, upstream.Bearer, "/admin/dashboard/recent-activity", nil, &out)
		return out, err
	}, s.retry.options("dashboard_activity", s.logger))

	view := DashboardView{Stats: []models.DashboardStat{}, RecentActivity: []models.RecentActivity{}}
	var g errgroup.Group
	g.Go(func() error {
		data, err := stats.Execute(ctx, struct{}{})
		if err != nil {
			view.StatsError = failure("dashboard stats", err)
			return contextError(err)
		}
		if data != nil {
			view.Stats = data
		}
		return nil
	})
	g.Go(func() error {
		data, err := activity.Execute(ctx, struct{}{})
		if err != nil {
			view.ActivityError = failure("recent activity", err)
			return contextError(err)
		}
		if data != nil {
			view.RecentActivity = data
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return DashboardView{}, err
	}
	return view, nil
}

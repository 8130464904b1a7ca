package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/repository"
)

// 时间分桶粒度
const (
	BucketDay   = "day"
	BucketWeek  = "week"
	BucketMonth = "month"
)

// ErrInvalidDateRange from 晚于 to
var ErrInvalidDateRange = errors.New("invalid date range")

// AnalyticsService 仪表盘统计
type AnalyticsService interface {
	Dashboard(ctx context.Context, req *dto.DashboardRequest) (*dto.DashboardResponse, error)
}

type analyticsService struct {
	repo      *repository.Repository
	evaluator *progressEvaluator
	logger    *zap.Logger
}

// NewAnalyticsService 创建 AnalyticsService 实例
func NewAnalyticsService(repo *repository.Repository, evaluator *progressEvaluator, logger *zap.Logger) AnalyticsService {
	return &analyticsService{repo: repo, evaluator: evaluator, logger: logger}
}

func (s *analyticsService) Dashboard(ctx context.Context, req *dto.DashboardRequest) (*dto.DashboardResponse, error) {
	filters := &repository.ApplicationListFilters{ActivityType: req.ActivityType}
	if req.From != "" {
		from, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			return nil, ErrInvalidDateRange
		}
		filters.From = &from
	}
	if req.To != "" {
		to, err := time.Parse("2006-01-02", req.To)
		if err != nil {
			return nil, ErrInvalidDateRange
		}
		// to 为包含当天
		to = to.AddDate(0, 0, 1)
		filters.To = &to
	}
	if filters.From != nil && filters.To != nil && !filters.From.Before(*filters.To) {
		return nil, ErrInvalidDateRange
	}

	bucket := req.Bucket
	if bucket == "" {
		bucket = BucketMonth
	}

	byStatus, err := s.repo.Application.CountByStatus(ctx, filters)
	if err != nil {
		s.logger.Error("按状态统计申请失败", zap.Error(err))
		return nil, err
	}
	byActivity, err := s.repo.Application.CountByActivityType(ctx, filters)
	if err != nil {
		s.logger.Error("按活动类型统计申请失败", zap.Error(err))
		return nil, err
	}
	apps, err := s.repo.Application.ListAll(ctx, filters)
	if err != nil {
		s.logger.Error("查询申请失败", zap.Error(err))
		return nil, err
	}
	reports, err := s.evaluator.ReportsFor(ctx, apps)
	if err != nil {
		return nil, err
	}

	resp := &dto.DashboardResponse{
		TotalApplications: int64(len(apps)),
		ByStatus:          toCountItems(byStatus),
		ByActivityType:    toCountItems(byActivity),
		Bucket:            bucket,
		ByPeriod:          bucketize(apps, bucket),
	}

	if len(apps) > 0 {
		sum := 0
		for _, app := range apps {
			report := reports[app.ID]
			sum += report.Progress.Percentage
			if report.Progress.IsFullyComplete {
				resp.FullyComplete++
			}
		}
		resp.AverageProgress = math.Round(float64(sum)/float64(len(apps))*10) / 10
	}
	return resp, nil
}

// BucketKey 返回时间所在分桶的标识；周以周一为起点
func BucketKey(t time.Time, bucket string) string {
	switch bucket {
	case BucketDay:
		return t.Format("2006-01-02")
	case BucketWeek:
		offset := (int(t.Weekday()) + 6) % 7
		return t.AddDate(0, 0, -offset).Format("2006-01-02")
	default:
		return t.Format("2006-01")
	}
}

// bucketize 按创建时间分桶计数，结果按分桶升序
func bucketize(apps []model.Application, bucket string) []dto.CountItem {
	counts := make(map[string]int64)
	for _, app := range apps {
		counts[BucketKey(app.CreatedAt, bucket)]++
	}
	items := make([]dto.CountItem, 0, len(counts))
	for k, v := range counts {
		items = append(items, dto.CountItem{Key: k, Count: v})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items
}

func toCountItems(rows []repository.LabelCount) []dto.CountItem {
	items := make([]dto.CountItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, dto.CountItem{Key: r.Label, Count: r.Total})
	}
	return items
}

package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kaushikmurali01/semi-portal-sub000/config"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/progress"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/repository"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/jwt"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/metrics"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/redis"
)

// ErrNoPermission 无权操作
var ErrNoPermission = errors.New("permission denied")

// Caller 当前请求的调用者
type Caller struct {
	UserID    string
	Role      string
	CompanyID string
}

// IsAdmin 是否为项目管理员
func (c Caller) IsAdmin() bool { return c.Role == model.RoleAdmin }

// CanAccessCompany 管理员可访问任意公司，其他角色仅限本公司
func (c Caller) CanAccessCompany(companyID string) bool {
	return c.IsAdmin() || (c.CompanyID != "" && c.CompanyID == companyID)
}

// TokenStore Token 黑名单存储
type TokenStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// ProgressCache 申请进度缓存
type ProgressCache interface {
	GetProgress(ctx context.Context, applicationID string) ([]byte, error)
	SetProgress(ctx context.Context, applicationID string, payload []byte, ttl time.Duration) error
	InvalidateProgress(ctx context.Context, applicationID string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        AuthService
	User        UserService
	Company     CompanyService
	Facility    FacilityService
	Template    TemplateService
	Application ApplicationService
	Submission  SubmissionService
	Analytics   AnalyticsService
	Export      ExportService
	NAICS       NAICSService

	Gate *progress.Gate
}

// NewService 创建 Service 聚合；rdb 为 nil 时黑名单与进度缓存降级关闭
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	var (
		tokens TokenStore
		cache  ProgressCache
	)
	if rdb != nil {
		tokens = rdb
		cache = rdb
	}

	gate := progress.NewGate(progress.PrefixRolePredicate(cfg.Portal.ContractorRolePrefix))
	evaluator := newProgressEvaluator(repo, cache, cfg.Portal.ProgressCacheTTL, m, logger)
	naicsSvc := NewNAICSService(repo, logger)

	return &Service{
		Auth:        NewAuthService(cfg, repo, jwtMgr, tokens, logger),
		User:        NewUserService(repo, logger),
		Company:     NewCompanyService(repo, logger),
		Facility:    NewFacilityService(repo, naicsSvc, logger),
		Template:    NewTemplateService(repo, evaluator, logger),
		Application: NewApplicationService(repo, evaluator, gate, m, logger),
		Submission:  NewSubmissionService(repo, evaluator, gate, m, logger),
		Analytics:   NewAnalyticsService(repo, evaluator, logger),
		Export:      NewExportService(repo, evaluator, logger),
		NAICS:       naicsSvc,
		Gate:        gate,
	}
}

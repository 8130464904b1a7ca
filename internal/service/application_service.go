package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/progress"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/repository"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/metrics"
)

// ── 申请模块业务错误 ──

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrApplicationLocked   = errors.New("application is locked for review")
	ErrCodeGeneration      = errors.New("failed to generate a unique application code")
)

// reviewTransitions 管理员审核可执行的状态流转
var reviewTransitions = map[string][]string{
	model.ApplicationStatusSubmitted:     {model.ApplicationStatusUnderReview},
	model.ApplicationStatusUnderReview:   {model.ApplicationStatusApproved, model.ApplicationStatusRejected, model.ApplicationStatusNeedsRevision},
	model.ApplicationStatusNeedsRevision: {model.ApplicationStatusUnderReview},
}

// CanTransition 是否允许从 from 流转到 to
func CanTransition(from, to string) bool {
	for _, next := range reviewTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// isEditable 审核中或已结束的申请不再接受表单写入
func isEditable(status string) bool {
	switch status {
	case model.ApplicationStatusUnderReview, model.ApplicationStatusApproved, model.ApplicationStatusRejected:
		return false
	}
	return true
}

// ApplicationService 申请业务接口
type ApplicationService interface {
	Create(ctx context.Context, caller Caller, req *dto.CreateApplicationRequest) (*dto.ApplicationResponse, error)
	List(ctx context.Context, caller Caller, req *dto.ApplicationListRequest) ([]dto.ApplicationResponse, int64, error)
	Get(ctx context.Context, caller Caller, id string) (*dto.ApplicationResponse, error)
	Progress(ctx context.Context, caller Caller, id string) (*dto.ApplicationProgressResponse, error)
	UpdateStatus(ctx context.Context, caller Caller, id string, req *dto.UpdateApplicationStatusRequest) (*dto.ApplicationResponse, error)
	ListSubmissions(ctx context.Context, caller Caller, id string) ([]dto.SubmissionResponse, error)
}

type applicationService struct {
	repo      *repository.Repository
	evaluator *progressEvaluator
	gate      *progress.Gate
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewApplicationService 创建 ApplicationService 实例
func NewApplicationService(
	repo *repository.Repository,
	evaluator *progressEvaluator,
	gate *progress.Gate,
	m *metrics.Metrics,
	logger *zap.Logger,
) ApplicationService {
	return &applicationService{repo: repo, evaluator: evaluator, gate: gate, metrics: m, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *applicationService) Create(ctx context.Context, caller Caller, req *dto.CreateApplicationRequest) (*dto.ApplicationResponse, error) {
	if !model.IsValidActivityType(req.ActivityType) {
		return nil, ErrInvalidActivityType
	}

	facility, err := s.repo.Facility.GetByID(ctx, req.FacilityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacilityNotFound
		}
		return nil, err
	}
	if !caller.CanAccessCompany(facility.CompanyID) {
		return nil, ErrNoPermission
	}

	code, err := s.uniqueCode(ctx, req.ActivityType, time.Now())
	if err != nil {
		return nil, err
	}

	app := &model.Application{
		ApplicationCode: code,
		ActivityType:    req.ActivityType,
		Status:          model.ApplicationStatusDraft,
		FacilityID:      facility.FacilityID,
		CompanyID:       facility.CompanyID,
	}
	app.MarkCreatedBy(caller.UserID)

	if err := s.repo.Application.Create(ctx, app); err != nil {
		s.logger.Error("创建申请失败", zap.Error(err))
		return nil, err
	}
	app.Facility = facility
	app.Company = facility.Company

	s.logger.Info("申请已创建",
		zap.String("application_id", app.ID),
		zap.String("code", code),
		zap.String("activity_type", app.ActivityType),
	)
	return s.withProgress(ctx, app), nil
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// uniqueCode 生成 <活动>-<年份>-<6 位大写字母数字> 形式的申请编号
func (s *applicationService) uniqueCode(ctx context.Context, activityType string, now time.Time) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		suffix := make([]byte, 6)
		for i := range suffix {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
			if err != nil {
				return "", err
			}
			suffix[i] = codeAlphabet[n.Int64()]
		}
		code := fmt.Sprintf("%s-%d-%s", activityType, now.Year(), suffix)

		exists, err := s.repo.Application.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeGeneration
}

// ────────────────────── 查询 ──────────────────────

func (s *applicationService) List(ctx context.Context, caller Caller, req *dto.ApplicationListRequest) ([]dto.ApplicationResponse, int64, error) {
	filters := &repository.ApplicationListFilters{
		Status:       req.Status,
		ActivityType: req.ActivityType,
		CompanyID:    req.CompanyID,
	}
	if !caller.IsAdmin() {
		if caller.CompanyID == "" {
			return []dto.ApplicationResponse{}, 0, nil
		}
		filters.CompanyID = caller.CompanyID
	}

	apps, total, err := s.repo.Application.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出申请失败", zap.Error(err))
		return nil, 0, err
	}

	reports, err := s.evaluator.ReportsFor(ctx, apps)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		resp := toApplicationResponse(&apps[i])
		if report, ok := reports[apps[i].ID]; ok {
			summary := summaryOf(report)
			resp.Progress = &summary
		}
		result = append(result, *resp)
	}
	return result, total, nil
}

func (s *applicationService) Get(ctx context.Context, caller Caller, id string) (*dto.ApplicationResponse, error) {
	app, err := loadApplication(ctx, s.repo, caller, id)
	if err != nil {
		return nil, err
	}
	return s.withProgress(ctx, app), nil
}

func (s *applicationService) Progress(ctx context.Context, caller Caller, id string) (*dto.ApplicationProgressResponse, error) {
	app, err := loadApplication(ctx, s.repo, caller, id)
	if err != nil {
		return nil, err
	}
	report, err := s.evaluator.Report(ctx, app)
	if err != nil {
		return nil, err
	}
	return &dto.ApplicationProgressResponse{
		ApplicationID: app.ID,
		Status:        app.Status,
		Progress:      summaryOf(report),
		Templates:     templateStatusesFor(report, s.gate, caller.Role),
	}, nil
}

func (s *applicationService) ListSubmissions(ctx context.Context, caller Caller, id string) ([]dto.SubmissionResponse, error) {
	app, err := loadApplication(ctx, s.repo, caller, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Submission.ListByApplication(ctx, app.ID)
	if err != nil {
		s.logger.Error("查询提交记录失败", zap.String("application_id", id), zap.Error(err))
		return nil, err
	}

	submittedAt := make(map[string]*time.Time, len(rows))
	for _, r := range rows {
		submittedAt[r.SubmissionID] = r.SubmittedAt
	}
	subs := normalizeSubmissions(rows)
	result := make([]dto.SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		result = append(result, toSubmissionResponse(sub, submittedAt[sub.ID]))
	}
	return result, nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *applicationService) UpdateStatus(ctx context.Context, caller Caller, id string, req *dto.UpdateApplicationStatusRequest) (*dto.ApplicationResponse, error) {
	if !caller.IsAdmin() {
		return nil, ErrNoPermission
	}
	app, err := loadApplication(ctx, s.repo, caller, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(app.Status, req.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, app.Status, req.Status)
	}

	from := app.Status
	app.Status = req.Status
	app.Version = req.Version
	app.MarkUpdatedBy(caller.UserID)

	if err := s.repo.Application.UpdateStatus(ctx, app); err != nil {
		s.logger.Warn("更新申请状态失败", zap.String("application_id", id), zap.Error(err))
		return nil, err
	}
	s.evaluator.Invalidate(ctx, app.ID)
	s.metrics.ApplicationTransitioned(app.Status)

	s.logger.Info("申请状态已变更",
		zap.String("application_id", app.ID),
		zap.String("from", from),
		zap.String("to", app.Status),
		zap.String("by", caller.UserID),
	)
	return s.withProgress(ctx, app), nil
}

// withProgress 求值失败时省略进度，不影响主体响应
func (s *applicationService) withProgress(ctx context.Context, app *model.Application) *dto.ApplicationResponse {
	resp := toApplicationResponse(app)
	report, err := s.evaluator.Report(ctx, app)
	if err != nil {
		s.logger.Warn("计算申请进度失败", zap.String("application_id", app.ID), zap.Error(err))
		return resp
	}
	summary := summaryOf(report)
	resp.Progress = &summary
	return resp
}

// loadApplication 读取申请并校验调用者的公司范围
func loadApplication(ctx context.Context, repo *repository.Repository, caller Caller, id string) (*model.Application, error) {
	app, err := repo.Application.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if !caller.CanAccessCompany(app.CompanyID) {
		return nil, ErrNoPermission
	}
	return app, nil
}

func toApplicationResponse(app *model.Application) *dto.ApplicationResponse {
	resp := &dto.ApplicationResponse{
		ID:              app.ID,
		ApplicationCode: app.ApplicationCode,
		ActivityType:    app.ActivityType,
		Status:          app.Status,
		Company:         toCompanyBrief(app.Company),
		Version:         app.Version,
		CreatedAt:       app.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       app.UpdatedAt.Format(time.RFC3339),
	}
	if app.Facility != nil {
		resp.Facility = &dto.FacilityBrief{
			ID:        app.Facility.FacilityID,
			Name:      app.Facility.Name,
			NAICSCode: app.Facility.NAICSCode,
		}
	}
	if app.SubmittedAt != nil {
		resp.SubmittedAt = app.SubmittedAt.Format(time.RFC3339)
	}
	return resp
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/progress"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/repository"
	pkgerrors "github.com/kaushikmurali01/semi-portal-sub000/pkg/errors"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/metrics"
)

// progressEvaluator 从数据库加载模板与提交记录，交由 progress 包求值
// 单个申请的结果写入进度缓存，任何提交写入或状态变更后失效
type progressEvaluator struct {
	repo    *repository.Repository
	cache   ProgressCache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func newProgressEvaluator(repo *repository.Repository, cache ProgressCache, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *progressEvaluator {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &progressEvaluator{repo: repo, cache: cache, ttl: ttl, metrics: m, logger: logger}
}

// Report 单个申请的求值结果，优先读缓存
func (e *progressEvaluator) Report(ctx context.Context, app *model.Application) (progress.Report, error) {
	if e.cache != nil {
		b, err := e.cache.GetProgress(ctx, app.ID)
		switch {
		case err == nil:
			var report progress.Report
			if jsonErr := json.Unmarshal(b, &report); jsonErr == nil {
				e.metrics.ProgressCache(true)
				return report, nil
			}
			e.logger.Warn("进度缓存内容无法解析", zap.String("application_id", app.ID))
		case !errors.Is(err, pkgerrors.ErrCacheMiss):
			e.logger.Warn("读取进度缓存失败", zap.String("application_id", app.ID), zap.Error(err))
		}
	}
	e.metrics.ProgressCache(false)

	report, err := e.compute(ctx, e.repo, app)
	if err != nil {
		return progress.Report{}, err
	}

	if e.cache != nil {
		if b, err := json.Marshal(report); err == nil {
			if err := e.cache.SetProgress(ctx, app.ID, b, e.ttl); err != nil {
				e.logger.Warn("写入进度缓存失败", zap.String("application_id", app.ID), zap.Error(err))
			}
		}
	}
	return report, nil
}

// compute 不经缓存直接求值，repo 可为事务聚合
func (e *progressEvaluator) compute(ctx context.Context, repo *repository.Repository, app *model.Application) (progress.Report, error) {
	templates, err := repo.FormTemplate.ListByActivityType(ctx, app.ActivityType)
	if err != nil {
		e.logger.Error("查询活动模板失败", zap.String("activity_type", app.ActivityType), zap.Error(err))
		return progress.Report{}, err
	}
	subs, err := repo.Submission.ListByApplication(ctx, app.ID)
	if err != nil {
		e.logger.Error("查询提交记录失败", zap.String("application_id", app.ID), zap.Error(err))
		return progress.Report{}, err
	}
	return progress.Evaluate(toProgressTemplates(templates), normalizeSubmissions(subs), app.ID, app.Status), nil
}

// Invalidate 删除申请的进度缓存
func (e *progressEvaluator) Invalidate(ctx context.Context, applicationID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateProgress(ctx, applicationID); err != nil {
		e.logger.Warn("删除进度缓存失败", zap.String("application_id", applicationID), zap.Error(err))
	}
}

// InvalidateActivity 模板变更后失效该活动类型下所有申请的缓存
func (e *progressEvaluator) InvalidateActivity(ctx context.Context, activityType string) {
	if e.cache == nil {
		return
	}
	apps, err := e.repo.Application.ListAll(ctx, &repository.ApplicationListFilters{ActivityType: activityType})
	if err != nil {
		e.logger.Warn("查询活动下的申请失败，缓存将按 TTL 过期", zap.String("activity_type", activityType), zap.Error(err))
		return
	}
	for _, app := range apps {
		e.Invalidate(ctx, app.ID)
	}
}

// ReportsFor 批量求值（统计与导出使用），不读写缓存
func (e *progressEvaluator) ReportsFor(ctx context.Context, apps []model.Application) (map[string]progress.Report, error) {
	reports := make(map[string]progress.Report, len(apps))
	if len(apps) == 0 {
		return reports, nil
	}

	typeSet := make(map[string]bool)
	ids := make([]string, 0, len(apps))
	for _, app := range apps {
		typeSet[app.ActivityType] = true
		ids = append(ids, app.ID)
	}
	activityTypes := make([]string, 0, len(typeSet))
	for t := range typeSet {
		activityTypes = append(activityTypes, t)
	}

	templates, err := e.repo.FormTemplate.ListByActivityTypes(ctx, activityTypes)
	if err != nil {
		e.logger.Error("批量查询活动模板失败", zap.Error(err))
		return nil, err
	}
	subs, err := e.repo.Submission.ListByApplicationIDs(ctx, ids)
	if err != nil {
		e.logger.Error("批量查询提交记录失败", zap.Error(err))
		return nil, err
	}

	templatesByType := make(map[string][]model.FormTemplate)
	for _, tpl := range templates {
		templatesByType[tpl.ActivityType] = append(templatesByType[tpl.ActivityType], tpl)
	}
	subsByApp := make(map[string][]model.Submission)
	for _, sub := range subs {
		subsByApp[sub.ApplicationID] = append(subsByApp[sub.ApplicationID], sub)
	}

	for _, app := range apps {
		reports[app.ID] = progress.Evaluate(
			toProgressTemplates(templatesByType[app.ActivityType]),
			normalizeSubmissions(subsByApp[app.ID]),
			app.ID, app.Status,
		)
	}
	return reports, nil
}

// ── 模型转换 ──

func toProgressTemplates(templates []model.FormTemplate) []progress.Template {
	out := make([]progress.Template, 0, len(templates))
	for _, tpl := range templates {
		out = append(out, progress.Template{
			ID:    tpl.TemplateID,
			Name:  tpl.Name,
			Order: tpl.SortOrder,
			Phase: tpl.Phase,
		})
	}
	return out
}

// toRawSubmission 数据库行转换为规范化前的原始记录
func toRawSubmission(sub model.Submission) progress.RawSubmission {
	raw := progress.RawSubmission{
		ID:             sub.SubmissionID,
		ApplicationID:  sub.ApplicationID,
		FormTemplateID: sub.FormTemplateID,
		Status:         sub.Status,
		Data:           decodeData(sub.Data),
	}
	if sub.ReviewNotes != nil {
		raw.ReviewNotes = *sub.ReviewNotes
	}
	if sub.CreatedAt != nil {
		raw.CreatedAt = sub.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if sub.SubmittedBy != nil {
		raw.SubmittedBy = *sub.SubmittedBy
	}
	return raw
}

func normalizeSubmissions(subs []model.Submission) []progress.Submission {
	raws := make([]progress.RawSubmission, 0, len(subs))
	for _, sub := range subs {
		raws = append(raws, toRawSubmission(sub))
	}
	return progress.NormalizeAll(raws)
}

// decodeData JSONB 解码为对象，非对象或无效内容返回 nil
func decodeData(b []byte) map[string]any {
	if len(b) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

func summaryOf(report progress.Report) dto.ProgressSummary {
	return dto.ProgressSummary{
		CompletedCount:  report.Progress.CompletedCount,
		TotalCount:      report.Progress.TotalCount,
		Percentage:      report.Progress.Percentage,
		IsFullyComplete: report.Progress.IsFullyComplete,
		Label:           report.Status.Label,
		Badge:           report.Status.Badge,
		IsTerminal:      report.Status.IsTerminal,
	}
}

// templateStatusesFor 附加当前角色的可访问性
func templateStatusesFor(report progress.Report, gate *progress.Gate, role string) []dto.TemplateStatusResponse {
	out := make([]dto.TemplateStatusResponse, 0, len(report.Statuses))
	for i, st := range report.Statuses {
		item := dto.TemplateStatusResponse{
			TemplateID:   st.TemplateID,
			IsCompleted:  st.IsCompleted,
			IsStarted:    st.IsStarted,
			SubmissionID: st.SubmissionID,
			Accessible:   gate.CanAccess(i, report.Statuses, role),
		}
		if i < len(report.Templates) {
			item.Name = report.Templates[i].Name
			item.Order = report.Templates[i].Order
		}
		if !item.Accessible {
			item.AccessNotice = progress.LabelAccessRestricted
		}
		out = append(out, item)
	}
	return out
}

func toSubmissionResponse(sub progress.Submission, submittedAt *time.Time) dto.SubmissionResponse {
	resp := dto.SubmissionResponse{
		ID:             sub.ID,
		ApplicationID:  sub.ApplicationID,
		FormTemplateID: sub.FormTemplateID,
		Status:         string(sub.Status),
		Data:           sub.Data,
		SubmittedBy:    sub.SubmittedBy,
	}
	if sub.CreatedAt != nil {
		resp.CreatedAt = sub.CreatedAt.Format(time.RFC3339)
	}
	if submittedAt != nil {
		resp.SubmittedAt = submittedAt.Format(time.RFC3339)
	}
	return resp
}

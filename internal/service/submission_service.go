package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/progress"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/repository"
	pkgerrors "github.com/kaushikmurali01/semi-portal-sub000/pkg/errors"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/metrics"
)

// ── 提交模块业务错误 ──

var (
	ErrSubmissionFinal        = errors.New("template already submitted")
	ErrTemplateLocked         = errors.New("previous template must be submitted first")
	ErrContractorCannotSubmit = errors.New("contractor accounts cannot submit")
)

// SubmissionService 表单提交业务接口
type SubmissionService interface {
	SaveDraft(ctx context.Context, caller Caller, applicationID, templateID string, req *dto.SaveSubmissionRequest) (*dto.SubmitResponse, error)
	Submit(ctx context.Context, caller Caller, applicationID, templateID string, req *dto.SaveSubmissionRequest) (*dto.SubmitResponse, error)
	Import(ctx context.Context, caller Caller, applicationID string, req *dto.ImportSubmissionsRequest) (*dto.ImportSubmissionsResponse, error)
}

type submissionService struct {
	repo      *repository.Repository
	evaluator *progressEvaluator
	gate      *progress.Gate
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewSubmissionService 创建 SubmissionService 实例
func NewSubmissionService(
	repo *repository.Repository,
	evaluator *progressEvaluator,
	gate *progress.Gate,
	m *metrics.Metrics,
	logger *zap.Logger,
) SubmissionService {
	return &submissionService{repo: repo, evaluator: evaluator, gate: gate, metrics: m, logger: logger}
}

// writeTarget 一次写入前的上下文：模板、当前状态与待更新的草稿
type writeTarget struct {
	template *model.FormTemplate
	report   progress.Report
	index    int
	draft    *model.Submission
}

// prepare 定位模板并执行"已提交不可改"与访问控制检查
func (s *submissionService) prepare(ctx context.Context, repo *repository.Repository, caller Caller, app *model.Application, templateID string, enforceGate bool) (*writeTarget, error) {
	templates, err := repo.FormTemplate.ListByActivityType(ctx, app.ActivityType)
	if err != nil {
		return nil, err
	}
	var tpl *model.FormTemplate
	for i := range templates {
		if templates[i].TemplateID == templateID {
			tpl = &templates[i]
			break
		}
	}
	if tpl == nil {
		return nil, ErrTemplateNotFound
	}

	rows, err := repo.Submission.ListByApplication(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	subs := normalizeSubmissions(rows)
	report := progress.Evaluate(toProgressTemplates(templates), subs, app.ID, app.Status)

	idx := progress.IndexOf(report.Statuses, templateID)
	if idx < 0 {
		return nil, ErrTemplateNotFound
	}
	if report.Statuses[idx].IsCompleted {
		return nil, ErrSubmissionFinal
	}
	if enforceGate && !s.gate.CanAccess(idx, report.Statuses, caller.Role) {
		return nil, ErrTemplateLocked
	}

	target := &writeTarget{template: tpl, report: report, index: idx}

	forTemplate := make([]progress.Submission, 0)
	for _, sub := range subs {
		if sub.FormTemplateID == templateID {
			forTemplate = append(forTemplate, sub)
		}
	}
	if draft, ok := progress.ActiveDraft(forTemplate); ok {
		for i := range rows {
			if rows[i].SubmissionID == draft.ID {
				target.draft = &rows[i]
				break
			}
		}
	}
	return target, nil
}

// ────────────────────── SaveDraft ──────────────────────

func (s *submissionService) SaveDraft(ctx context.Context, caller Caller, applicationID, templateID string, req *dto.SaveSubmissionRequest) (*dto.SubmitResponse, error) {
	app, err := loadApplication(ctx, s.repo, caller, applicationID)
	if err != nil {
		return nil, err
	}
	if !isEditable(app.Status) {
		return nil, ErrApplicationLocked
	}

	data, err := json.Marshal(req.Data)
	if err != nil {
		return nil, err
	}

	// 承包商可为任意模板保存草稿
	target, err := s.prepare(ctx, s.repo, caller, app, templateID, !s.gate.IsContractorRole(caller.Role))
	if err != nil {
		return nil, err
	}

	var saved *model.Submission
	if target.draft != nil {
		saved = target.draft
		saved.Data = datatypes.JSON(data)
		saved.SubmittedBy = &caller.UserID
		if err := s.repo.Submission.Update(ctx, saved); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return nil, ErrSubmissionFinal
			}
			s.logger.Error("更新草稿失败", zap.String("submission_id", saved.SubmissionID), zap.Error(err))
			return nil, err
		}
	} else {
		now := time.Now()
		saved = &model.Submission{
			ApplicationID:  app.ID,
			FormTemplateID: templateID,
			Status:         model.SubmissionStatusDraft,
			Data:           datatypes.JSON(data),
			SubmittedBy:    &caller.UserID,
			CreatedAt:      &now,
		}
		if err := s.repo.Submission.Create(ctx, saved); err != nil {
			s.logger.Error("创建草稿失败", zap.String("application_id", app.ID), zap.Error(err))
			return nil, err
		}
	}

	s.evaluator.Invalidate(ctx, app.ID)
	s.metrics.SubmissionWritten(model.SubmissionStatusDraft)
	return s.respond(ctx, app, saved)
}

// ────────────────────── Submit ──────────────────────

func (s *submissionService) Submit(ctx context.Context, caller Caller, applicationID, templateID string, req *dto.SaveSubmissionRequest) (*dto.SubmitResponse, error) {
	if s.gate.IsContractorRole(caller.Role) {
		return nil, ErrContractorCannotSubmit
	}

	app, err := loadApplication(ctx, s.repo, caller, applicationID)
	if err != nil {
		return nil, err
	}
	if !isEditable(app.Status) {
		return nil, ErrApplicationLocked
	}

	data, err := json.Marshal(req.Data)
	if err != nil {
		return nil, err
	}

	var saved *model.Submission
	transitioned := false
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		target, err := s.prepare(ctx, txRepo, caller, app, templateID, true)
		if err != nil {
			return err
		}
		if err := validateSubmission(decodeFields(target.template.Fields), req.Data); err != nil {
			return err
		}

		now := time.Now()
		if target.draft != nil {
			saved = target.draft
			saved.Status = model.SubmissionStatusSubmitted
			saved.Data = datatypes.JSON(data)
			saved.SubmittedBy = &caller.UserID
			saved.SubmittedAt = &now
			if err := txRepo.Submission.Update(ctx, saved); err != nil {
				if errors.Is(err, pkgerrors.ErrOptimisticLock) {
					return ErrSubmissionFinal
				}
				return err
			}
		} else {
			saved = &model.Submission{
				ApplicationID:  app.ID,
				FormTemplateID: templateID,
				Status:         model.SubmissionStatusSubmitted,
				Data:           datatypes.JSON(data),
				SubmittedBy:    &caller.UserID,
				SubmittedAt:    &now,
				CreatedAt:      &now,
			}
			if err := txRepo.Submission.Create(ctx, saved); err != nil {
				return err
			}
		}

		// 首次提交：draft → submitted
		if app.Status == model.ApplicationStatusDraft {
			app.Status = model.ApplicationStatusSubmitted
			app.SubmittedAt = &now
			app.MarkUpdatedBy(caller.UserID)
			if err := txRepo.Application.UpdateStatus(ctx, app); err != nil {
				return err
			}
			transitioned = true
		}
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("提交表单失败",
				zap.String("application_id", applicationID),
				zap.String("template_id", templateID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.evaluator.Invalidate(ctx, app.ID)
	if transitioned {
		s.metrics.ApplicationTransitioned(app.Status)
	}
	s.metrics.SubmissionWritten(model.SubmissionStatusSubmitted)
	s.logger.Info("表单已提交",
		zap.String("application_id", app.ID),
		zap.String("template_id", templateID),
		zap.String("submission_id", saved.SubmissionID),
	)
	return s.respond(ctx, app, saved)
}

func (s *submissionService) respond(ctx context.Context, app *model.Application, saved *model.Submission) (*dto.SubmitResponse, error) {
	report, err := s.evaluator.Report(ctx, app)
	if err != nil {
		return nil, err
	}
	normalized := progress.Normalize(toRawSubmission(*saved))
	return &dto.SubmitResponse{
		Submission: toSubmissionResponse(normalized, saved.SubmittedAt),
		Progress:   summaryOf(report),
	}, nil
}

// ────────────────────── Import ──────────────────────

// 导入跳过原因
const (
	skipOtherApplication = "record belongs to another application"
	skipUnknownTemplate  = "unknown form template"
	skipUnknownStatus    = "unknown status"
	skipDuplicate        = "template already has a submitted record"
)

// Import 旧数据经规范化后写入，一次请求在同一事务内完成
func (s *submissionService) Import(ctx context.Context, caller Caller, applicationID string, req *dto.ImportSubmissionsRequest) (*dto.ImportSubmissionsResponse, error) {
	if !caller.IsAdmin() {
		return nil, ErrNoPermission
	}
	app, err := loadApplication(ctx, s.repo, caller, applicationID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ImportSubmissionsResponse{Total: len(req.Records)}
	var imported []string

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		resp.Imported, resp.Skipped, resp.Errors, imported = 0, 0, nil, nil
		anySubmitted := false

		templates, err := txRepo.FormTemplate.ListByActivityType(ctx, app.ActivityType)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(templates))
		for _, t := range templates {
			known[t.TemplateID] = true
		}

		existing, err := txRepo.Submission.ListByApplication(ctx, app.ID)
		if err != nil {
			return err
		}
		submitted := make(map[string]bool)
		for _, sub := range normalizeSubmissions(existing) {
			if sub.Status == progress.StatusSubmitted {
				submitted[sub.FormTemplateID] = true
			}
		}

		skip := func(i int, reason string) {
			resp.Skipped++
			resp.Errors = append(resp.Errors, dto.ImportSubmissionError{Index: i, Reason: reason})
		}

		for i, rec := range req.Records {
			raw := progress.RawSubmission{
				ID:             rec.ID,
				ApplicationID:  rec.ApplicationID,
				FormTemplateID: rec.FormTemplateID,
				Status:         rec.Status,
				Data:           rec.Data,
				ReviewNotes:    rec.ReviewNotes,
				CreatedAt:      rec.CreatedAt,
				CreatedAtSnake: rec.CreatedAtSnake,
				SubmittedBy:    rec.SubmittedBy,
			}
			if raw.ApplicationID == "" {
				raw.ApplicationID = app.ID
			}
			sub := progress.Normalize(raw)

			switch {
			case sub.ApplicationID != app.ID:
				skip(i, skipOtherApplication)
				continue
			case !known[sub.FormTemplateID]:
				skip(i, skipUnknownTemplate)
				continue
			case sub.Status != progress.StatusDraft && sub.Status != progress.StatusSubmitted:
				skip(i, skipUnknownStatus)
				continue
			case sub.Status == progress.StatusSubmitted && submitted[sub.FormTemplateID]:
				skip(i, skipDuplicate)
				continue
			}

			row, err := importedRow(sub)
			if err != nil {
				return err
			}
			if err := txRepo.Submission.Create(ctx, row); err != nil {
				return err
			}
			if sub.Status == progress.StatusSubmitted {
				submitted[sub.FormTemplateID] = true
				anySubmitted = true
			}
			imported = append(imported, row.Status)
			resp.Imported++
		}

		if anySubmitted && app.Status == model.ApplicationStatusDraft {
			now := time.Now()
			app.Status = model.ApplicationStatusSubmitted
			app.SubmittedAt = &now
			app.MarkUpdatedBy(caller.UserID)
			if err := txRepo.Application.UpdateStatus(ctx, app); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("导入提交记录失败", zap.String("application_id", applicationID), zap.Error(err))
		return nil, err
	}

	for _, status := range imported {
		s.metrics.SubmissionWritten(status)
	}
	s.evaluator.Invalidate(ctx, app.ID)
	s.logger.Info("提交记录已导入",
		zap.String("application_id", app.ID),
		zap.Int("imported", resp.Imported),
		zap.Int("skipped", resp.Skipped),
	)
	return resp, nil
}

// importedRow 规范化记录转为新行；原 ID 不保留，非 uuid 的提交人丢弃
func importedRow(sub progress.Submission) (*model.Submission, error) {
	data, err := json.Marshal(sub.Data)
	if err != nil {
		return nil, err
	}
	row := &model.Submission{
		SubmissionID:   uuid.NewString(),
		ApplicationID:  sub.ApplicationID,
		FormTemplateID: sub.FormTemplateID,
		Status:         string(sub.Status),
		Data:           datatypes.JSON(data),
		CreatedAt:      sub.CreatedAt,
	}
	if _, err := uuid.Parse(sub.SubmittedBy); err == nil {
		by := sub.SubmittedBy
		row.SubmittedBy = &by
	}
	if sub.Status == progress.StatusSubmitted {
		row.SubmittedAt = sub.CreatedAt
	}
	return row, nil
}

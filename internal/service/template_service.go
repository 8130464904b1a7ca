package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/repository"
)

// ── 模板模块业务错误 ──

var (
	ErrTemplateNotFound    = errors.New("template not found")
	ErrTemplateOrderTaken  = errors.New("order already used by another template of this activity")
	ErrDuplicateFieldID    = errors.New("duplicate field id in template")
	ErrInvalidActivityType = errors.New("invalid activity type")
)

// TemplateService 活动模板业务接口
type TemplateService interface {
	ListByActivityType(ctx context.Context, activityType string) ([]dto.TemplateResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TemplateResponse, error)
	Create(ctx context.Context, caller Caller, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, error)
	Update(ctx context.Context, caller Caller, id string, req *dto.UpdateTemplateRequest) (*dto.TemplateResponse, error)
	Delete(ctx context.Context, caller Caller, id string) error
}

type templateService struct {
	repo      *repository.Repository
	evaluator *progressEvaluator
	logger    *zap.Logger
}

// NewTemplateService 创建 TemplateService 实例
func NewTemplateService(repo *repository.Repository, evaluator *progressEvaluator, logger *zap.Logger) TemplateService {
	return &templateService{repo: repo, evaluator: evaluator, logger: logger}
}

func (s *templateService) ListByActivityType(ctx context.Context, activityType string) ([]dto.TemplateResponse, error) {
	if !model.IsValidActivityType(activityType) {
		return nil, ErrInvalidActivityType
	}
	tpls, err := s.repo.FormTemplate.ListByActivityType(ctx, activityType)
	if err != nil {
		s.logger.Error("列出活动模板失败", zap.String("activity_type", activityType), zap.Error(err))
		return nil, err
	}
	result := make([]dto.TemplateResponse, 0, len(tpls))
	for i := range tpls {
		result = append(result, *toTemplateResponse(&tpls[i]))
	}
	return result, nil
}

func (s *templateService) GetByID(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	tpl, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTemplateResponse(tpl), nil
}

func (s *templateService) Create(ctx context.Context, caller Caller, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, error) {
	if !model.IsValidActivityType(req.ActivityType) {
		return nil, ErrInvalidActivityType
	}
	fields, err := encodeFields(req.Fields)
	if err != nil {
		return nil, err
	}
	if err := s.checkOrder(ctx, req.ActivityType, req.Order, ""); err != nil {
		return nil, err
	}

	tpl := &model.FormTemplate{
		ActivityType: req.ActivityType,
		Name:         strings.TrimSpace(req.Name),
		SortOrder:    req.Order,
		Phase:        req.Phase,
		Fields:       fields,
		IsActive:     true,
	}
	tpl.MarkCreatedBy(caller.UserID)

	if err := s.repo.FormTemplate.Create(ctx, tpl); err != nil {
		s.logger.Error("创建活动模板失败", zap.Error(err))
		return nil, err
	}
	s.evaluator.InvalidateActivity(ctx, tpl.ActivityType)

	s.logger.Info("活动模板已创建",
		zap.String("template_id", tpl.TemplateID),
		zap.String("activity_type", tpl.ActivityType),
		zap.Int("order", tpl.SortOrder),
	)
	return toTemplateResponse(tpl), nil
}

func (s *templateService) Update(ctx context.Context, caller Caller, id string, req *dto.UpdateTemplateRequest) (*dto.TemplateResponse, error) {
	tpl, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		tpl.Name = strings.TrimSpace(*req.Name)
	}
	if req.Order != nil && *req.Order != tpl.SortOrder {
		if err := s.checkOrder(ctx, tpl.ActivityType, *req.Order, tpl.TemplateID); err != nil {
			return nil, err
		}
		tpl.SortOrder = *req.Order
	}
	if req.Phase != nil {
		tpl.Phase = *req.Phase
	}
	if req.Fields != nil {
		fields, err := encodeFields(req.Fields)
		if err != nil {
			return nil, err
		}
		tpl.Fields = fields
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}
	tpl.MarkUpdatedBy(caller.UserID)

	if err := s.repo.FormTemplate.Update(ctx, tpl); err != nil {
		s.logger.Error("更新活动模板失败", zap.String("template_id", id), zap.Error(err))
		return nil, err
	}
	s.evaluator.InvalidateActivity(ctx, tpl.ActivityType)
	return toTemplateResponse(tpl), nil
}

func (s *templateService) Delete(ctx context.Context, caller Caller, id string) error {
	tpl, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.FormTemplate.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("删除活动模板失败", zap.String("template_id", id), zap.Error(err))
		return err
	}
	s.evaluator.InvalidateActivity(ctx, tpl.ActivityType)
	return nil
}

func (s *templateService) checkOrder(ctx context.Context, activityType string, order int, excludeID string) error {
	taken, err := s.repo.FormTemplate.OrderTaken(ctx, activityType, order, excludeID)
	if err != nil {
		s.logger.Error("检查模板顺序失败", zap.Error(err))
		return err
	}
	if taken {
		return ErrTemplateOrderTaken
	}
	return nil
}

func (s *templateService) get(ctx context.Context, id string) (*model.FormTemplate, error) {
	tpl, err := s.repo.FormTemplate.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("查询活动模板失败", zap.String("template_id", id), zap.Error(err))
		return nil, err
	}
	return tpl, nil
}

// encodeFields 字段 ID 在模板内唯一
func encodeFields(reqs []dto.TemplateFieldRequest) (datatypes.JSON, error) {
	fields := make([]model.TemplateField, 0, len(reqs))
	seen := make(map[string]bool, len(reqs))
	for _, f := range reqs {
		id := strings.TrimSpace(f.ID)
		if seen[id] {
			return nil, ErrDuplicateFieldID
		}
		seen[id] = true
		fields = append(fields, model.TemplateField{
			ID:       id,
			Label:    f.Label,
			Type:     f.Type,
			Required: f.Required,
			Options:  f.Options,
		})
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// decodeFields 无效内容视为无字段
func decodeFields(b datatypes.JSON) []model.TemplateField {
	var fields []model.TemplateField
	if len(b) == 0 {
		return fields
	}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil
	}
	return fields
}

func toTemplateResponse(tpl *model.FormTemplate) *dto.TemplateResponse {
	fields := decodeFields(tpl.Fields)
	out := make([]dto.TemplateFieldRequest, 0, len(fields))
	for _, f := range fields {
		out = append(out, dto.TemplateFieldRequest{
			ID:       f.ID,
			Label:    f.Label,
			Type:     f.Type,
			Required: f.Required,
			Options:  f.Options,
		})
	}
	return &dto.TemplateResponse{
		ID:           tpl.TemplateID,
		ActivityType: tpl.ActivityType,
		Name:         tpl.Name,
		Order:        tpl.SortOrder,
		Phase:        tpl.Phase,
		Fields:       out,
		IsActive:     tpl.IsActive,
	}
}

package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/service"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/response"
)

// TemplateHandler 活动模板 HTTP 处理器
type TemplateHandler struct {
	templateSvc service.TemplateService
}

// NewTemplateHandler 创建 TemplateHandler
func NewTemplateHandler(templateSvc service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateSvc: templateSvc}
}

// ListTemplates 活动类型下的有效模板，按顺序升序
// GET /api/v1/activity-templates/:activityType
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templateSvc.ListByActivityType(c.Request.Context(), c.Param("activityType"))
	if err != nil {
		h.handleTemplateError(c, err)
		return
	}

	response.OK(c, gin.H{"list": templates})
}

// GetTemplate 模板详情
// GET /api/v1/activity-templates/id/:id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	tpl, err := h.templateSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTemplateError(c, err)
		return
	}

	response.OK(c, tpl)
}

// CreateTemplate 创建模板
// POST /api/v1/activity-templates
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	tpl, err := h.templateSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleTemplateError(c, err)
		return
	}

	response.Created(c, tpl)
}

// UpdateTemplate 更新模板
// PUT /api/v1/activity-templates/id/:id
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	tpl, err := h.templateSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleTemplateError(c, err)
		return
	}

	response.OK(c, tpl)
}

// DeleteTemplate 软删除模板
// DELETE /api/v1/activity-templates/id/:id
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.templateSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleTemplateError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *TemplateHandler) handleTemplateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		response.NotFound(c, 15001, "模板不存在")
	case errors.Is(err, service.ErrTemplateOrderTaken):
		response.Conflict(c, 15002, "该活动类型下的顺序已被占用")
	case errors.Is(err, service.ErrDuplicateFieldID):
		response.BadRequest(c, 15003, "模板字段 ID 重复")
	case errors.Is(err, service.ErrInvalidActivityType):
		response.BadRequest(c, 15004, "无效的活动类型")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权限访问")
	default:
		response.InternalError(c)
	}
}

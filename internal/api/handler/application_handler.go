package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/service"
	pkgerrors "github.com/kaushikmurali01/semi-portal-sub000/pkg/errors"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/response"
)

// ApplicationHandler 申请模块 HTTP 处理器
type ApplicationHandler struct {
	appSvc service.ApplicationService
}

// NewApplicationHandler 创建 ApplicationHandler
func NewApplicationHandler(appSvc service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{appSvc: appSvc}
}

// CreateApplication 创建草稿申请
// POST /api/v1/applications
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	app, err := h.appSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.Created(c, app)
}

// ListApplications 申请列表，每项附带进度
// GET /api/v1/applications
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ApplicationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	apps, total, err := h.appSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OKPage(c, apps, total, req.GetPage(), req.GetPageSize())
}

// GetApplication 申请详情
// GET /api/v1/applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	app, err := h.appSvc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, app)
}

// GetProgress 申请进度与各模板状态（含访问控制标注）
// GET /api/v1/applications/:id/progress
func (h *ApplicationHandler) GetProgress(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.appSvc.Progress(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateStatus 审核状态流转（管理员）
// PUT /api/v1/applications/:id/status
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	app, err := h.appSvc.UpdateStatus(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, app)
}

// ListSubmissions 规范化后的提交记录
// GET /api/v1/applications/:id/submissions
func (h *ApplicationHandler) ListSubmissions(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	subs, err := h.appSvc.ListSubmissions(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": subs})
}

func (h *ApplicationHandler) handleApplicationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		response.NotFound(c, 16001, "申请不存在")
	case errors.Is(err, service.ErrFacilityNotFound):
		response.NotFound(c, 16002, "设施不存在")
	case errors.Is(err, service.ErrInvalidTransition):
		response.ErrorWithDetails(c, http.StatusConflict, 16003, "不允许的状态流转", err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 16004, "申请已被修改，请刷新后重试")
	case errors.Is(err, service.ErrInvalidActivityType):
		response.BadRequest(c, 16005, "无效的活动类型")
	case errors.Is(err, service.ErrApplicationLocked):
		response.Forbidden(c, 16006, "申请审核中，已锁定")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权限访问")
	default:
		response.InternalError(c)
	}
}

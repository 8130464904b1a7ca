package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/service"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/response"
)

// SubmissionHandler 表单提交 HTTP 处理器
type SubmissionHandler struct {
	submissionSvc service.SubmissionService
}

// NewSubmissionHandler 创建 SubmissionHandler
func NewSubmissionHandler(submissionSvc service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionSvc: submissionSvc}
}

// SaveDraft 保存草稿（存在草稿时更新最新一条）
// PUT /api/v1/applications/:id/submissions/:templateId/draft
func (h *SubmissionHandler) SaveDraft(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.SaveSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.submissionSvc.SaveDraft(c.Request.Context(), caller, c.Param("id"), c.Param("templateId"), &req)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, result)
}

// Submit 正式提交模板
// POST /api/v1/applications/:id/submissions/:templateId/submit
func (h *SubmissionHandler) Submit(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.SaveSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.submissionSvc.Submit(c.Request.Context(), caller, c.Param("id"), c.Param("templateId"), &req)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, result)
}

// Import 导入旧系统的提交记录（管理员）
// POST /api/v1/applications/:id/submissions/import
func (h *SubmissionHandler) Import(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ImportSubmissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.submissionSvc.Import(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *SubmissionHandler) handleSubmissionError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Unprocessable(c, 17001, "表单数据校验失败", strings.Join(verr.Details, "; "))
	case errors.Is(err, service.ErrSubmissionFinal):
		response.Conflict(c, 17002, "该模板已提交，不可修改")
	case errors.Is(err, service.ErrTemplateLocked):
		response.Forbidden(c, 17003, "请先提交前一个模板")
	case errors.Is(err, service.ErrContractorCannotSubmit):
		response.Forbidden(c, 17004, "承包商账号不能提交")
	case errors.Is(err, service.ErrTemplateNotFound):
		response.NotFound(c, 17005, "模板不存在")
	case errors.Is(err, service.ErrApplicationNotFound):
		response.NotFound(c, 16001, "申请不存在")
	case errors.Is(err, service.ErrApplicationLocked):
		response.Error(c, http.StatusForbidden, 16006, "申请审核中，已锁定")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权限访问")
	default:
		response.InternalError(c)
	}
}

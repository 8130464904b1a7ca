package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/service"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/response"
)

// FacilityHandler 设施模块 HTTP 处理器
type FacilityHandler struct {
	facilitySvc service.FacilityService
}

// NewFacilityHandler 创建 FacilityHandler
func NewFacilityHandler(facilitySvc service.FacilityService) *FacilityHandler {
	return &FacilityHandler{facilitySvc: facilitySvc}
}

// ListFacilities 设施列表；管理员可按 company_id 过滤
// GET /api/v1/facilities
func (h *FacilityHandler) ListFacilities(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	facilities, err := h.facilitySvc.List(c.Request.Context(), caller, c.Query("company_id"))
	if err != nil {
		h.handleFacilityError(c, err)
		return
	}

	response.OK(c, gin.H{"list": facilities})
}

// GetFacility 设施详情
// GET /api/v1/facilities/:id
func (h *FacilityHandler) GetFacility(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	facility, err := h.facilitySvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleFacilityError(c, err)
		return
	}

	response.OK(c, facility)
}

// CreateFacility 创建设施
// POST /api/v1/facilities
func (h *FacilityHandler) CreateFacility(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	facility, err := h.facilitySvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleFacilityError(c, err)
		return
	}

	response.Created(c, facility)
}

// UpdateFacility 更新设施
// PUT /api/v1/facilities/:id
func (h *FacilityHandler) UpdateFacility(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	facility, err := h.facilitySvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleFacilityError(c, err)
		return
	}

	response.OK(c, facility)
}

// DeleteFacility 删除设施
// DELETE /api/v1/facilities/:id
func (h *FacilityHandler) DeleteFacility(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.facilitySvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleFacilityError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *FacilityHandler) handleFacilityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFacilityNotFound):
		response.NotFound(c, 14001, "设施不存在")
	case errors.Is(err, service.ErrInvalidNAICSCode):
		response.BadRequest(c, 14002, "NAICS 代码不是有效的设施类型")
	case errors.Is(err, service.ErrNAICSCatalogEmpty):
		response.Error(c, http.StatusServiceUnavailable, 14003, "NAICS 目录尚未导入")
	case errors.Is(err, service.ErrCompanyNotFound):
		response.NotFound(c, 14004, "公司不存在")
	case errors.Is(err, service.ErrFacilityCompanyRequired):
		response.BadRequest(c, 14005, "必须指定公司")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权限访问")
	default:
		response.InternalError(c)
	}
}

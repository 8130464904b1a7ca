package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/service"
	pkgerrors "github.com/kaushikmurali01/semi-portal-sub000/pkg/errors"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/response"
)

// CompanyHandler 公司模块 HTTP 处理器
type CompanyHandler struct {
	companySvc service.CompanyService
}

// NewCompanyHandler 创建 CompanyHandler
func NewCompanyHandler(companySvc service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companySvc: companySvc}
}

// ListCompanies 公司列表
// GET /api/v1/companies
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	var req dto.CompanyListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	companies, err := h.companySvc.List(c.Request.Context(), req.IncludeInactive)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": companies})
}

// GetCompany 公司详情
// GET /api/v1/companies/:id
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	company, err := h.companySvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleCompanyError(c, err)
		return
	}

	response.OK(c, company)
}

// CreateCompany 创建公司
// POST /api/v1/companies
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	company, err := h.companySvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleCompanyError(c, err)
		return
	}

	response.Created(c, company)
}

// UpdateCompany 更新公司（乐观锁）
// PUT /api/v1/companies/:id
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	company, err := h.companySvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleCompanyError(c, err)
		return
	}

	response.OK(c, company)
}

// DeleteCompany 删除公司
// DELETE /api/v1/companies/:id
func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.companySvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleCompanyError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListMembers 公司成员
// GET /api/v1/companies/:id/members
func (h *CompanyHandler) ListMembers(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		bindFailed(c, err)
		return
	}

	users, total, err := h.companySvc.ListMembers(c.Request.Context(), caller, c.Param("id"), &page)
	if err != nil {
		h.handleCompanyError(c, err)
		return
	}

	response.OKPage(c, users, total, page.GetPage(), page.GetPageSize())
}

func (h *CompanyHandler) handleCompanyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCompanyNotFound):
		response.NotFound(c, 13001, "公司不存在")
	case errors.Is(err, service.ErrCompanyNameExists):
		response.Conflict(c, 13002, "公司名称已存在")
	case errors.Is(err, service.ErrCompanyHasUsers):
		response.BadRequest(c, 13003, "公司下存在用户，无法删除")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13004, "数据已被修改，请刷新后重试")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权限访问")
	default:
		response.InternalError(c)
	}
}

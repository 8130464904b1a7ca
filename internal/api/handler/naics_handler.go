package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/naics"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/service"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/response"
)

// NAICSHandler NAICS 目录 HTTP 处理器
type NAICSHandler struct {
	naicsSvc service.NAICSService
}

// NewNAICSHandler 创建 NAICSHandler
func NewNAICSHandler(naicsSvc service.NAICSService) *NAICSHandler {
	return &NAICSHandler{naicsSvc: naicsSvc}
}

// Import 上传工作簿替换目录（管理员）
// POST /api/v1/naics/import  (multipart, 字段名 file)
func (h *NAICSHandler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "缺少上传文件 file")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 18001, "无法读取上传文件")
		return
	}
	defer f.Close()

	result, err := h.naicsSvc.Import(c.Request.Context(), f)
	if err != nil {
		h.handleNAICSError(c, err)
		return
	}

	response.OK(c, result)
}

// ListSectors 门类列表
// GET /api/v1/naics/sectors
func (h *NAICSHandler) ListSectors(c *gin.Context) {
	sectors, err := h.naicsSvc.Sectors()
	if err != nil {
		h.handleNAICSError(c, err)
		return
	}
	response.OK(c, gin.H{"list": sectors})
}

// ListCategories 门类下的类别
// GET /api/v1/naics/sectors/:code/categories
func (h *NAICSHandler) ListCategories(c *gin.Context) {
	categories, err := h.naicsSvc.Categories(c.Param("code"))
	if err != nil {
		h.handleNAICSError(c, err)
		return
	}
	response.OK(c, gin.H{"list": categories})
}

// ListTypes 类别下的设施类型
// GET /api/v1/naics/categories/:code/types
func (h *NAICSHandler) ListTypes(c *gin.Context) {
	types, err := h.naicsSvc.Types(c.Param("code"))
	if err != nil {
		h.handleNAICSError(c, err)
		return
	}
	response.OK(c, gin.H{"list": types})
}

// Describe 代码描述
// GET /api/v1/naics/codes/:code
func (h *NAICSHandler) Describe(c *gin.Context) {
	response.OK(c, h.naicsSvc.Describe(c.Param("code")))
}

// Validate 校验三级组合
// POST /api/v1/naics/validate
func (h *NAICSHandler) Validate(c *gin.Context) {
	var req dto.NAICSValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	code, err := h.naicsSvc.Validate(&req)
	if err != nil {
		h.handleNAICSError(c, err)
		return
	}

	response.OK(c, h.naicsSvc.Describe(code))
}

func (h *NAICSHandler) handleNAICSError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, naics.ErrWorkbookOpen):
		response.BadRequest(c, 18001, "无法读取上传文件")
	case errors.Is(err, naics.ErrHeaderNotFound):
		response.BadRequest(c, 18002, "工作簿缺少代码/标题表头")
	case errors.Is(err, naics.ErrNoEligibleCodes):
		response.BadRequest(c, 18003, "工作簿中没有符合条件的代码")
	case errors.Is(err, naics.ErrInvalidCombination):
		response.BadRequest(c, 18004, "NAICS 三级组合不一致")
	case errors.Is(err, service.ErrNAICSCatalogEmpty):
		response.Error(c, http.StatusServiceUnavailable, 18005, "NAICS 目录尚未导入")
	default:
		response.InternalError(c)
	}
}

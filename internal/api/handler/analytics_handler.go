package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/dto"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/service"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/response"
)

// AnalyticsHandler 统计模块 HTTP 处理器
type AnalyticsHandler struct {
	analyticsSvc service.AnalyticsService
}

// NewAnalyticsHandler 创建 AnalyticsHandler
func NewAnalyticsHandler(analyticsSvc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc}
}

// Dashboard 管理员仪表盘
// GET /api/v1/analytics/dashboard?bucket=week&from=2026-01-01&to=2026-03-31
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	var req dto.DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.analyticsSvc.Dashboard(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDateRange) {
			response.BadRequest(c, 19001, "起始日期不能晚于结束日期")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

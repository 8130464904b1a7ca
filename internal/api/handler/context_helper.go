package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaushikmurali01/semi-portal-sub000/internal/api/middleware"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/service"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/jwt"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.ContextUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetCaller 提取调用者身份；项目管理员的 company_id 为空
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Caller{}, false
	}
	role := c.GetString(middleware.ContextRole)
	if role == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Caller{}, false
	}
	return service.Caller{
		UserID:    userID,
		Role:      role,
		CompanyID: c.GetString(middleware.ContextCompanyID),
	}, true
}

// getClaims 当前 Access Token 的声明，登出时用于加入黑名单
func getClaims(c *gin.Context) *jwt.Claims {
	v, exists := c.Get(middleware.ContextClaims)
	if !exists {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}

// bindFailed 统一的参数校验失败响应，请求体超限时返回 413
func bindFailed(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}

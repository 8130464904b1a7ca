package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kaushikmurali01/semi-portal-sub000/config"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/api/handler"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/api/middleware"
	"github.com/kaushikmurali01/semi-portal-sub000/internal/model"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/jwt"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/metrics"
	"github.com/kaushikmurali01/semi-portal-sub000/pkg/redis"
)

// Pinger 健康检查依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	m *metrics.Metrics,
	db Pinger,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))
	r.Use(middleware.Metrics(m))

	// ── 健康检查 ──
	r.GET("/health", healthHandler(db))

	if cfg.Metrics.Enabled && m != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	const (
		admin         = model.RoleAdmin
		companyAdmin  = model.RoleCompanyAdmin
		companyUser   = model.RoleCompanyUser
		contractorAdm = model.RoleContractorAdmin
		contractorTM  = model.RoleContractorTeamMember
	)
	companyRoles := []string{admin, companyAdmin, companyUser}
	allRoles := []string{admin, companyAdmin, companyUser, contractorAdm, contractorTM}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			loginLimit := cfg.Auth.LoginRateLimit
			auth.POST("/login", middleware.RateLimit(rdb, loginLimit.Limit, loginLimit.Window, logger), h.Auth.Login)
			auth.POST("/register", h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.GET("/invite/:code", h.Auth.ValidateInvite)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)
			authorized.POST("/auth/invite", middleware.RoleAuth(admin, companyAdmin), h.Auth.GenerateInvite)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("", middleware.RoleAuth(admin), h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)    // admin 或本人（Service 层鉴权）
				users.PUT("/:id", h.User.UpdateUser) // admin 或本人（Service 层鉴权）
				users.DELETE("/:id", middleware.RoleAuth(admin), h.User.DeleteUser)
				users.PUT("/:id/role", middleware.RoleAuth(admin), h.User.AssignRole)
				users.POST("/:id/reset-password", middleware.RoleAuth(admin), h.User.ResetPassword)
			}

			// 公司模块
			companies := authorized.Group("/companies")
			{
				companies.GET("", middleware.RoleAuth(admin), h.Company.ListCompanies)
				companies.GET("/:id", h.Company.GetCompany)
				companies.POST("", middleware.RoleAuth(admin), h.Company.CreateCompany)
				companies.PUT("/:id", middleware.RoleAuth(admin), h.Company.UpdateCompany)
				companies.DELETE("/:id", middleware.RoleAuth(admin), h.Company.DeleteCompany)
				companies.GET("/:id/members", middleware.RoleAuth(admin, companyAdmin), h.Company.ListMembers)
			}

			// 设施模块
			facilities := authorized.Group("/facilities")
			{
				facilities.GET("", h.Facility.ListFacilities)
				facilities.GET("/:id", h.Facility.GetFacility)
				facilities.POST("", middleware.RoleAuth(companyRoles...), h.Facility.CreateFacility)
				facilities.PUT("/:id", middleware.RoleAuth(companyRoles...), h.Facility.UpdateFacility)
				facilities.DELETE("/:id", middleware.RoleAuth(companyRoles...), h.Facility.DeleteFacility)
			}

			// 活动模板
			templates := authorized.Group("/activity-templates")
			{
				templates.GET("/:activityType", h.Template.ListTemplates)
				templates.GET("/id/:id", h.Template.GetTemplate)
				templates.POST("", middleware.RoleAuth(admin), h.Template.CreateTemplate)
				templates.PUT("/id/:id", middleware.RoleAuth(admin), h.Template.UpdateTemplate)
				templates.DELETE("/id/:id", middleware.RoleAuth(admin), h.Template.DeleteTemplate)
			}

			// 申请与表单提交
			applications := authorized.Group("/applications")
			{
				applications.POST("", middleware.RoleAuth(allRoles...), h.Application.CreateApplication)
				applications.GET("", h.Application.ListApplications)
				applications.GET("/:id", h.Application.GetApplication)
				applications.GET("/:id/progress", h.Application.GetProgress)
				applications.PUT("/:id/status", middleware.RoleAuth(admin), h.Application.UpdateStatus)
				applications.GET("/:id/submissions", h.Application.ListSubmissions)

				applications.POST("/:id/submissions/import", middleware.RoleAuth(admin), h.Submission.Import)
				applications.PUT("/:id/submissions/:templateId/draft", h.Submission.SaveDraft)
				applications.POST("/:id/submissions/:templateId/submit", h.Submission.Submit)
			}

			// 统计与导出（管理员）
			authorized.GET("/analytics/dashboard", middleware.RoleAuth(admin), h.Analytics.Dashboard)
			authorized.GET("/export/applications", middleware.RoleAuth(admin), h.Export.ExportApplications)

			// NAICS 目录
			naics := authorized.Group("/naics")
			{
				naics.POST("/import", middleware.RoleAuth(admin), h.NAICS.Import)
				naics.GET("/sectors", h.NAICS.ListSectors)
				naics.GET("/sectors/:code/categories", h.NAICS.ListCategories)
				naics.GET("/categories/:code/types", h.NAICS.ListTypes)
				naics.GET("/codes/:code", h.NAICS.Describe)
				naics.POST("/validate", h.NAICS.Validate)
			}
		}
	}

	return r
}

// healthHandler 返回服务状态与数据库连通性
func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "unknown"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "up"})
	}
}

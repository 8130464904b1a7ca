package handler

import "github.com/kaushikmurali01/semi-portal-sub000/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	User        *UserHandler
	Company     *CompanyHandler
	Facility    *FacilityHandler
	Template    *TemplateHandler
	Application *ApplicationHandler
	Submission  *SubmissionHandler
	Analytics   *AnalyticsHandler
	Export      *ExportHandler
	NAICS       *NAICSHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		User:        NewUserHandler(svc.User),
		Company:     NewCompanyHandler(svc.Company),
		Facility:    NewFacilityHandler(svc.Facility),
		Template:    NewTemplateHandler(svc.Template),
		Application: NewApplicationHandler(svc.Application),
		Submission:  NewSubmissionHandler(svc.Submission),
		Analytics:   NewAnalyticsHandler(svc.Analytics),
		Export:      NewExportHandler(svc.Export),
		NAICS:       NewNAICSHandler(svc.NAICS),
	}
}

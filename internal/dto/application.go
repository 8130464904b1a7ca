package dto

// ── 申请模块 DTO ──

// CreateApplicationRequest 创建申请请求
type CreateApplicationRequest struct {
	FacilityID   string `json:"facility_id"   binding:"required,uuid"`
	ActivityType string `json:"activity_type" binding:"required,oneof=FRA EAA SEM EMIS CR"`
}

// ApplicationListRequest 申请列表查询参数
type ApplicationListRequest struct {
	PaginationRequest
	Status       string `form:"status"        binding:"omitempty,oneof=draft submitted under_review approved rejected needs_revision"`
	ActivityType string `form:"activity_type" binding:"omitempty,oneof=FRA EAA SEM EMIS CR"`
	CompanyID    string `form:"company_id"    binding:"omitempty,uuid"`
}

// UpdateApplicationStatusRequest 审核状态变更请求
type UpdateApplicationStatusRequest struct {
	Status  string `json:"status"  binding:"required,oneof=under_review approved rejected needs_revision"`
	Version int    `json:"version" binding:"required,min=1"`
}

// ApplicationResponse 申请响应，附带计算后的进度
type ApplicationResponse struct {
	ID              string           `json:"id"`
	ApplicationCode string           `json:"application_code"`
	ActivityType    string           `json:"activity_type"`
	Status          string           `json:"status"`
	Company         *CompanyBrief    `json:"company,omitempty"`
	Facility        *FacilityBrief   `json:"facility,omitempty"`
	SubmittedAt     string           `json:"submitted_at,omitempty"`
	Version         int              `json:"version"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
	Progress        *ProgressSummary `json:"progress,omitempty"`
}

// ProgressSummary 进度摘要
type ProgressSummary struct {
	CompletedCount  int    `json:"completed_count"`
	TotalCount      int    `json:"total_count"`
	Percentage      int    `json:"percentage"`
	IsFullyComplete bool   `json:"is_fully_complete"`
	Label           string `json:"label"`
	Badge           string `json:"badge"`
	IsTerminal      bool   `json:"is_terminal"`
}

// TemplateStatusResponse 单个模板的完成状态及对当前用户的可访问性
type TemplateStatusResponse struct {
	TemplateID   string `json:"template_id"`
	Name         string `json:"name"`
	Order        int    `json:"order"`
	IsCompleted  bool   `json:"is_completed"`
	IsStarted    bool   `json:"is_started"`
	SubmissionID string `json:"submission_id,omitempty"`
	Accessible   bool   `json:"accessible"`
	AccessNotice string `json:"access_notice,omitempty"`
}

// ApplicationProgressResponse GET /applications/:id/progress
type ApplicationProgressResponse struct {
	ApplicationID string                   `json:"application_id"`
	Status        string                   `json:"status"`
	Progress      ProgressSummary          `json:"progress"`
	Templates     []TemplateStatusResponse `json:"templates"`
}

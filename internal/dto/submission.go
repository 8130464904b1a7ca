package dto

// ── 表单提交 DTO ──

// SaveSubmissionRequest 保存草稿 / 正式提交请求
type SaveSubmissionRequest struct {
	Data map[string]interface{} `json:"data" binding:"required"`
}

// ImportSubmissionsRequest 旧数据导入请求，记录格式兼容两种历史结构
type ImportSubmissionsRequest struct {
	Records []RawSubmissionRecord `json:"records" binding:"required,min=1,max=1000,dive"`
}

// RawSubmissionRecord 旧数据记录（camelCase 与 snake_case 时间字段均可）
type RawSubmissionRecord struct {
	ID             string                 `json:"id"`
	ApplicationID  string                 `json:"applicationId"`
	FormTemplateID string                 `json:"formTemplateId" binding:"required"`
	Status         string                 `json:"status"`
	Data           map[string]interface{} `json:"data"`
	ReviewNotes    string                 `json:"reviewNotes"`
	CreatedAt      string                 `json:"createdAt"`
	CreatedAtSnake string                 `json:"created_at"`
	SubmittedBy    string                 `json:"submittedBy"`
}

// ImportSubmissionsResponse 导入结果
type ImportSubmissionsResponse struct {
	Total    int                     `json:"total"`
	Imported int                     `json:"imported"`
	Skipped  int                     `json:"skipped"`
	Errors   []ImportSubmissionError `json:"errors,omitempty"`
}

// ImportSubmissionError 导入跳过原因
type ImportSubmissionError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// SubmissionResponse 规范化后的提交记录
type SubmissionResponse struct {
	ID             string                 `json:"id"`
	ApplicationID  string                 `json:"application_id"`
	FormTemplateID string                 `json:"form_template_id"`
	Status         string                 `json:"status"`
	Data           map[string]interface{} `json:"data"`
	SubmittedBy    string                 `json:"submitted_by,omitempty"`
	SubmittedAt    string                 `json:"submitted_at,omitempty"`
	CreatedAt      string                 `json:"created_at,omitempty"`
}

// SubmitResponse 提交后的记录与最新进度
type SubmitResponse struct {
	Submission SubmissionResponse `json:"submission"`
	Progress   ProgressSummary    `json:"progress"`
}

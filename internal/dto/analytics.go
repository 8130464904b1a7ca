package dto

// ── 统计模块 DTO ──

// DashboardRequest 仪表盘查询参数
type DashboardRequest struct {
	Bucket       string `form:"bucket"        binding:"omitempty,oneof=day week month"`
	From         string `form:"from"          binding:"omitempty,datetime=2006-01-02"`
	To           string `form:"to"            binding:"omitempty,datetime=2006-01-02"`
	ActivityType string `form:"activity_type" binding:"omitempty,oneof=FRA EAA SEM EMIS CR"`
}

// CountItem 分组计数
type CountItem struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// DashboardResponse 仪表盘统计
type DashboardResponse struct {
	TotalApplications int64       `json:"total_applications"`
	ByStatus          []CountItem `json:"by_status"`
	ByActivityType    []CountItem `json:"by_activity_type"`
	Bucket            string      `json:"bucket"`
	ByPeriod          []CountItem `json:"by_period"`
	AverageProgress   float64     `json:"average_progress"`
	FullyComplete     int         `json:"fully_complete"`
}

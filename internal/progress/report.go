package progress

// Report 一次完整求值的结果
type Report struct {
	Templates []Template       `json:"templates"`
	Statuses  []TemplateStatus `json:"statuses"`
	Progress  Progress         `json:"progress"`
	Status    StatusLabel      `json:"status"`
}

// Evaluate 规范化之后的单次求值：排序 → 模板状态 → 进度 → 标签
func Evaluate(templates []Template, submissions []Submission, applicationID, applicationStatus string) Report {
	sorted := SortTemplates(templates)
	statuses := ComputeTemplateStatuses(sorted, submissions, applicationID)
	return Report{
		Templates: sorted,
		Statuses:  statuses,
		Progress:  Summarize(sorted, statuses),
		Status:    ResolveStatusLabel(applicationStatus, sorted, statuses),
	}
}

package progress

// 状态标签文案
const (
	LabelNoTemplates = "No Templates"
	LabelNotStarted  = "Not Started"
	submittedSuffix  = " Submitted"
)

// 徽标样式，对应前端 Badge variant
const (
	BadgeSecondary   = "secondary"
	BadgeDefault     = "default"
	BadgeSuccess     = "success"
	BadgeWarning     = "warning"
	BadgeDestructive = "destructive"
)

// StatusLabel 状态标签解析结果
type StatusLabel struct {
	Label      string `json:"label"`
	Badge      string `json:"badge"`
	IsTerminal bool   `json:"isTerminal"`
}

// ResolveStatusLabel 由申请状态与模板完成情况解析展示标签
//
// 标签只取决于模板完成情况；申请状态只影响徽标样式与是否终态。
// 审批通过是模板之外的管理员动作，全部模板提交仍显示为"<最后模板> Submitted"。
func ResolveStatusLabel(applicationStatus string, sortedTemplates []Template, statuses []TemplateStatus) StatusLabel {
	completed := CountCompleted(statuses)
	total := len(sortedTemplates)

	res := StatusLabel{
		Label:      labelFor(sortedTemplates, statuses),
		Badge:      BadgeDefault,
		IsTerminal: total > 0 && completed == total,
	}

	switch {
	case total == 0 || completed == 0:
		res.Badge = BadgeSecondary
	case completed == total:
		res.Badge = BadgeSuccess
	}

	switch applicationStatus {
	case "approved":
		res.Badge = BadgeSuccess
		res.IsTerminal = true
	case "rejected":
		res.Badge = BadgeDestructive
		res.IsTerminal = true
	case "needs_revision":
		res.Badge = BadgeWarning
		res.IsTerminal = false
	}
	return res
}

// labelFor 取 order 最大的已完成模板作为最新里程碑
func labelFor(sortedTemplates []Template, statuses []TemplateStatus) string {
	if len(sortedTemplates) == 0 {
		return LabelNoTemplates
	}

	completedByID := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		if st.IsCompleted {
			completedByID[st.TemplateID] = true
		}
	}

	latest := -1
	for i, t := range sortedTemplates {
		if completedByID[t.ID] {
			latest = i
		}
	}
	if latest < 0 {
		return LabelNotStarted
	}
	return sortedTemplates[latest].Name + submittedSuffix
}

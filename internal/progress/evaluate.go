package progress

import (
	"math"
	"sort"
)

// 旧版模板只有 phase，没有显式 order
const (
	PhasePreActivity  = "pre_activity"
	PhasePostActivity = "post_activity"
)

const (
	// progressFloor 已开始申请的基础进度
	progressFloor = 30
	// progressSpan 模板完成后分摊的剩余进度
	progressSpan = 70
	// noTemplatePercentage 无模板活动的固定进度
	noTemplatePercentage = 33
)

// Template 参与进度计算的表单模板
type Template struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
	Phase string `json:"phase,omitempty"`
}

// TemplateStatus 单个模板的完成情况
type TemplateStatus struct {
	TemplateID   string `json:"templateId"`
	IsCompleted  bool   `json:"isCompleted"`
	IsStarted    bool   `json:"isStarted"`
	SubmissionID string `json:"submissionId,omitempty"`
}

// Progress 申请整体进度
type Progress struct {
	CompletedCount  int    `json:"completedCount"`
	TotalCount      int    `json:"totalCount"`
	Percentage      int    `json:"percentage"`
	Label           string `json:"label"`
	IsFullyComplete bool   `json:"isFullyComplete"`
}

// effectiveOrder 显式 order 优先；order 缺省时按旧版 phase 推导
func (t Template) effectiveOrder() int {
	if t.Order != 0 {
		return t.Order
	}
	switch t.Phase {
	case PhasePreActivity:
		return 1
	case PhasePostActivity:
		return 2
	}
	return 0
}

// SortTemplates 按 order 升序返回模板副本
// order 相同（数据不合规）时按 ID 升序，保证结果确定
func SortTemplates(templates []Template) []Template {
	sorted := make([]Template, len(templates))
	copy(sorted, templates)
	sort.SliceStable(sorted, func(i, j int) bool {
		oi, oj := sorted[i].effectiveOrder(), sorted[j].effectiveOrder()
		if oi != oj {
			return oi < oj
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// ComputeTemplateStatuses 计算每个模板的完成状态，顺序与排序后的模板一致
func ComputeTemplateStatuses(templates []Template, submissions []Submission, applicationID string) []TemplateStatus {
	sorted := SortTemplates(templates)

	// 按模板归组，仅保留属于本申请的记录
	byTemplate := make(map[string][]Submission, len(sorted))
	for _, s := range submissions {
		if s.ApplicationID != applicationID {
			continue
		}
		byTemplate[s.FormTemplateID] = append(byTemplate[s.FormTemplateID], s)
	}

	statuses := make([]TemplateStatus, 0, len(sorted))
	for _, t := range sorted {
		st := TemplateStatus{TemplateID: t.ID}
		subs := byTemplate[t.ID]

		if submitted, ok := findSubmitted(subs); ok {
			st.IsCompleted = true
			st.SubmissionID = submitted.ID
		} else if draft, ok := ActiveDraft(subs); ok {
			st.IsStarted = true
			st.SubmissionID = draft.ID
		}
		statuses = append(statuses, st)
	}
	return statuses
}

func findSubmitted(subs []Submission) (Submission, bool) {
	var found Submission
	ok := false
	for _, s := range subs {
		if s.Status != StatusSubmitted {
			continue
		}
		// 正常数据至多一条；异常数据下取 ID 最大者以保持确定
		if !ok || s.ID > found.ID {
			found = s
			ok = true
		}
	}
	return found, ok
}

// ActiveDraft 多条草稿时取 createdAt 最新的一条
// 无日期的记录不参与日期比较，只在没有任何带日期草稿时才会被选中；并列按 ID 降序
func ActiveDraft(subs []Submission) (Submission, bool) {
	var best Submission
	ok := false
	for _, s := range subs {
		if s.Status != StatusDraft {
			continue
		}
		if !ok || newerDraft(s, best) {
			best = s
			ok = true
		}
	}
	return best, ok
}

func newerDraft(a, b Submission) bool {
	switch {
	case a.CreatedAt != nil && b.CreatedAt == nil:
		return true
	case a.CreatedAt == nil && b.CreatedAt != nil:
		return false
	case a.CreatedAt != nil && b.CreatedAt != nil && !a.CreatedAt.Equal(*b.CreatedAt):
		return a.CreatedAt.After(*b.CreatedAt)
	}
	return a.ID > b.ID
}

// Percentage 进度百分比：30 + k*(70/N) 四舍五入；N=0 时固定 33
func Percentage(completed, total int) int {
	if total <= 0 {
		return noTemplatePercentage
	}
	p := int(math.Round(progressFloor + float64(completed)*(float64(progressSpan)/float64(total))))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ComputeProgress 计算申请整体进度（含状态标签）
func ComputeProgress(templates []Template, submissions []Submission, applicationID string) Progress {
	sorted := SortTemplates(templates)
	statuses := ComputeTemplateStatuses(sorted, submissions, applicationID)
	return Summarize(sorted, statuses)
}

// Summarize 由已计算的模板状态汇总进度，避免重复求值
func Summarize(sortedTemplates []Template, statuses []TemplateStatus) Progress {
	completed := CountCompleted(statuses)
	total := len(sortedTemplates)
	return Progress{
		CompletedCount:  completed,
		TotalCount:      total,
		Percentage:      Percentage(completed, total),
		Label:           labelFor(sortedTemplates, statuses),
		IsFullyComplete: total > 0 && completed == total,
	}
}

// CountCompleted 已完成模板数
func CountCompleted(statuses []TemplateStatus) int {
	n := 0
	for _, st := range statuses {
		if st.IsCompleted {
			n++
		}
	}
	return n
}

package progress

import (
	"encoding/json"
	"strings"
	"time"
)

// SubmissionStatus 表单提交状态
type SubmissionStatus string

const (
	StatusDraft     SubmissionStatus = "draft"
	StatusSubmitted SubmissionStatus = "submitted"
)

// RawSubmission 未规范化的提交记录
//
// 兼容两代历史结构：
//   - 时间戳：createdAt（新）/ created_at（旧）
//   - 表单数据：data（新）/ reviewNotes 中的 JSON 字符串（旧）
//
// 时间戳以字符串接收，解析失败时视为"无日期"，而不是让整条记录解码失败。
type RawSubmission struct {
	ID             string         `json:"id"`
	ApplicationID  string         `json:"applicationId"`
	FormTemplateID string         `json:"formTemplateId"`
	Status         string         `json:"status"`
	Data           map[string]any `json:"data,omitempty"`
	ReviewNotes    string         `json:"reviewNotes,omitempty"`
	CreatedAt      string         `json:"createdAt,omitempty"`
	CreatedAtSnake string         `json:"created_at,omitempty"`
	SubmittedBy    string         `json:"submittedBy,omitempty"`
}

// Submission 规范化后的提交记录，下游只依赖这一形状
type Submission struct {
	ID             string           `json:"id"`
	ApplicationID  string           `json:"applicationId"`
	FormTemplateID string           `json:"formTemplateId"`
	Status         SubmissionStatus `json:"status"`
	Data           map[string]any   `json:"data"`
	CreatedAt      *time.Time       `json:"createdAt,omitempty"` // nil 表示无日期，不参与按日期比较
	SubmittedBy    string           `json:"submittedBy,omitempty"`
}

// timestampLayouts 依次尝试的时间格式
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Normalize 将原始记录转换为规范结构，永不失败
func Normalize(raw RawSubmission) Submission {
	return Submission{
		ID:             raw.ID,
		ApplicationID:  raw.ApplicationID,
		FormTemplateID: raw.FormTemplateID,
		Status:         SubmissionStatus(strings.ToLower(strings.TrimSpace(raw.Status))),
		Data:           resolveData(raw.Data, raw.ReviewNotes),
		CreatedAt:      resolveCreatedAt(raw.CreatedAt, raw.CreatedAtSnake),
		SubmittedBy:    raw.SubmittedBy,
	}
}

// NormalizeAll 批量规范化
func NormalizeAll(raws []RawSubmission) []Submission {
	out := make([]Submission, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}

func resolveCreatedAt(candidates ...string) *time.Time {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if t, ok := parseTimestamp(c); ok {
			return &t
		}
	}
	return nil
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// resolveData data 非空优先；否则尝试把 reviewNotes 解析为 JSON 对象；都不行返回空映射
func resolveData(data map[string]any, reviewNotes string) map[string]any {
	if len(data) > 0 {
		return data
	}
	notes := strings.TrimSpace(reviewNotes)
	if notes == "" {
		return map[string]any{}
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(notes), &parsed); err != nil || parsed == nil {
		return map[string]any{}
	}
	return parsed
}

package progress

import "strings"

// LabelAccessRestricted 模板不可访问时的提示文案
const LabelAccessRestricted = "Access Restricted"

// RolePredicate 判断角色是否为承包商账号
type RolePredicate func(role string) bool

// PrefixRolePredicate 以角色前缀识别承包商，例如 "contractor_"
func PrefixRolePredicate(prefix string) RolePredicate {
	return func(role string) bool {
		return prefix != "" && strings.HasPrefix(role, prefix)
	}
}

// Gate 模板访问控制
//
// 按顺序开放模板：界面层据此禁用标签页，提交接口据此拒绝越级提交。
type Gate struct {
	isContractor RolePredicate
}

// NewGate 创建访问控制，承包商判定在此统一注入
func NewGate(isContractor RolePredicate) *Gate {
	if isContractor == nil {
		isContractor = func(string) bool { return false }
	}
	return &Gate{isContractor: isContractor}
}

// IsContractorRole 是否为承包商角色
func (g *Gate) IsContractorRole(role string) bool {
	return g.isContractor(role)
}

// CanAccess 判断排序后第 index 个模板对当前角色是否可访问
//   - 承包商：总是可访问
//   - index == 0：总是可访问
//   - 其他：前一个模板已完成才可访问
func (g *Gate) CanAccess(index int, statuses []TemplateStatus, role string) bool {
	if g.isContractor(role) {
		return true
	}
	if index == 0 {
		return true
	}
	if index < 0 || index >= len(statuses) {
		return false
	}
	return statuses[index-1].IsCompleted
}

// IndexOf 在模板状态列表中定位模板位置，未找到返回 -1
func IndexOf(statuses []TemplateStatus, templateID string) int {
	for i, st := range statuses {
		if st.TemplateID == templateID {
			return i
		}
	}
	return -1
}

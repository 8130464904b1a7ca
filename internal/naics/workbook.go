package naics

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// StructureSheet NAICS 2022 结构表的工作表名
const StructureSheet = "2022 NAICS Structure"

// ManufacturingSector 31/32/33 合并后的制造业门类
const (
	ManufacturingSector = "31-33"
	manufacturingTitle  = "Manufacturing"
)

var (
	ErrWorkbookOpen     = errors.New("无法打开 NAICS 工作簿")
	ErrHeaderNotFound   = errors.New("未找到 NAICS 代码/标题表头")
	ErrNoEligibleCodes  = errors.New("工作簿中没有符合条件的 NAICS 代码")
	trailingMarkerRegex = regexp.MustCompile(`T\s*$`)
)

// eligibleSectors 项目覆盖的门类
var eligibleSectors = map[string]bool{
	"11": true, "21": true, "22": true, "23": true,
	"31": true, "32": true, "33": true,
	"48": true, "56": true,
}

// ParseWorkbook 解析 NAICS 结构工作簿
//
// 规则：
//   - 优先读取 "2022 NAICS Structure" 工作表，不存在时读取第一个工作表
//   - 表头行：同时包含 "code" 与 "title" 字样的第一行
//   - 代码去掉 ".0" 后缀；仅保留符合条件的门类
//   - 31/32/33 合并为 "31-33 Manufacturing"，其下类别的 parent 同样改为 "31-33"
//   - 标题去掉结尾的 "T" 标记与空白
func ParseWorkbook(r io.Reader) ([]Code, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookOpen, err)
	}
	defer f.Close()

	sheet := StructureSheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrHeaderNotFound
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %q 失败: %w", sheet, err)
	}

	return parseRows(rows)
}

func parseRows(rows [][]string) ([]Code, error) {
	headerIdx, codeCol, titleCol := findHeader(rows)
	if headerIdx < 0 {
		return nil, ErrHeaderNotFound
	}

	var codes []Code
	seen := make(map[string]bool)
	add := func(c Code) {
		if seen[c.Code] {
			return
		}
		seen[c.Code] = true
		codes = append(codes, c)
	}

	for _, row := range rows[headerIdx+1:] {
		code := cleanCode(cell(row, codeCol))
		title := CleanTitle(cell(row, titleCol))
		if code == "" {
			continue
		}

		switch {
		case isSectorCode(code):
			prefix := code[:2]
			if !eligibleSectors[prefix] {
				continue
			}
			if isManufacturing(prefix) {
				add(Code{Code: ManufacturingSector, Title: manufacturingTitle, Level: LevelSector})
				continue
			}
			add(Code{Code: prefix, Title: title, Level: LevelSector})

		case len(code) == LevelCategory && isDigits(code):
			if !eligibleSectors[code[:2]] {
				continue
			}
			add(Code{Code: code, Title: title, Level: LevelCategory, Parent: sectorParent(code[:2])})

		case len(code) == LevelType && isDigits(code):
			if !eligibleSectors[code[:2]] {
				continue
			}
			add(Code{Code: code, Title: title, Level: LevelType, Parent: code[:3]})
		}
	}

	if len(codes) == 0 {
		return nil, ErrNoEligibleCodes
	}
	return codes, nil
}

// findHeader 返回表头行号及代码列、标题列下标
func findHeader(rows [][]string) (int, int, int) {
	for i, row := range rows {
		codeCol, titleCol := -1, -1
		for j, c := range row {
			lc := strings.ToLower(strings.TrimSpace(c))
			if codeCol < 0 && strings.Contains(lc, "code") {
				codeCol = j
			} else if titleCol < 0 && strings.Contains(lc, "title") {
				titleCol = j
			}
		}
		if codeCol >= 0 && titleCol >= 0 {
			return i, codeCol, titleCol
		}
	}
	return -1, -1, -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func cleanCode(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSuffix(s, ".0")
}

// CleanTitle 去掉标题结尾的 "T" 标记与多余空白
func CleanTitle(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSpace(trailingMarkerRegex.ReplaceAllString(s, ""))
}

// isSectorCode 2 位代码或 "31-33" 形式的区间代码
func isSectorCode(code string) bool {
	if len(code) == LevelSector && isDigits(code) {
		return true
	}
	parts := strings.Split(code, "-")
	return len(parts) == 2 && len(parts[0]) == 2 && isDigits(parts[0]) && isDigits(parts[1])
}

func isManufacturing(prefix string) bool {
	return prefix == "31" || prefix == "32" || prefix == "33"
}

func sectorParent(prefix string) string {
	if isManufacturing(prefix) {
		return ManufacturingSector
	}
	return prefix
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package naics

import (
	"errors"
	"sort"
	"strings"
)

// 层级：2 位行业门类、3 位类别、6 位设施类型
const (
	LevelSector   = 2
	LevelCategory = 3
	LevelType     = 6
)

// UnknownDescription 未知代码的描述
const UnknownDescription = "Unknown NAICS code"

// ErrInvalidCombination 门类/类别/类型组合不一致
var ErrInvalidCombination = errors.New("invalid NAICS code combination")

// Code NAICS 代码条目
type Code struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	Level  int    `json:"level"`
	Parent string `json:"parent"`
}

// Catalog 只读的 NAICS 目录，构造后可并发读取
type Catalog struct {
	sectors    []Code
	categories []Code
	types      []Code
	byCode     map[string]Code
}

// NewCatalog 由代码列表构建目录，每一层按标题排序
func NewCatalog(codes []Code) *Catalog {
	c := &Catalog{byCode: make(map[string]Code, len(codes))}
	for _, code := range codes {
		switch code.Level {
		case LevelSector:
			c.sectors = append(c.sectors, code)
		case LevelCategory:
			c.categories = append(c.categories, code)
		case LevelType:
			c.types = append(c.types, code)
		default:
			continue
		}
		c.byCode[code.Code] = code
	}
	sortByTitle(c.sectors)
	sortByTitle(c.categories)
	sortByTitle(c.types)
	return c
}

func sortByTitle(codes []Code) {
	sort.SliceStable(codes, func(i, j int) bool {
		if codes[i].Title != codes[j].Title {
			return codes[i].Title < codes[j].Title
		}
		return codes[i].Code < codes[j].Code
	})
}

// Len 条目总数
func (c *Catalog) Len() int { return len(c.byCode) }

// Codes 全部条目（门类、类别、类型依次排列）
func (c *Catalog) Codes() []Code {
	out := make([]Code, 0, len(c.byCode))
	out = append(out, c.sectors...)
	out = append(out, c.categories...)
	out = append(out, c.types...)
	return out
}

// Sectors 全部门类
func (c *Catalog) Sectors() []Code {
	return append([]Code(nil), c.sectors...)
}

// CategoriesBySector 指定门类下的类别
func (c *Catalog) CategoriesBySector(sector string) []Code {
	return filterByParent(c.categories, sector)
}

// TypesByCategory 指定类别下的设施类型
func (c *Catalog) TypesByCategory(category string) []Code {
	return filterByParent(c.types, category)
}

func filterByParent(codes []Code, parent string) []Code {
	out := make([]Code, 0)
	for _, code := range codes {
		if code.Parent == parent {
			out = append(out, code)
		}
	}
	return out
}

// Lookup 按代码查找
func (c *Catalog) Lookup(code string) (Code, bool) {
	v, ok := c.byCode[strings.TrimSpace(code)]
	return v, ok
}

// IsFacilityType 是否为已知的 6 位设施类型代码
func (c *Catalog) IsFacilityType(code string) bool {
	v, ok := c.Lookup(code)
	return ok && v.Level == LevelType
}

// Validate 校验三级组合，合法时返回完整的 6 位代码
func (c *Catalog) Validate(sector, category, facilityType string) (string, error) {
	s, ok := c.Lookup(sector)
	if !ok || s.Level != LevelSector {
		return "", ErrInvalidCombination
	}
	cat, ok := c.Lookup(category)
	if !ok || cat.Level != LevelCategory || cat.Parent != s.Code {
		return "", ErrInvalidCombination
	}
	t, ok := c.Lookup(facilityType)
	if !ok || t.Level != LevelType || t.Parent != cat.Code {
		return "", ErrInvalidCombination
	}
	return t.Code, nil
}

// Describe 返回 "门类 > 类别 > 类型" 形式的描述
func (c *Catalog) Describe(code string) string {
	t, ok := c.Lookup(code)
	if !ok || t.Level != LevelType {
		return UnknownDescription
	}
	cat, ok := c.Lookup(t.Parent)
	if !ok {
		return UnknownDescription
	}
	sector, ok := c.Lookup(cat.Parent)
	if !ok {
		return UnknownDescription
	}
	return sector.Title + " > " + cat.Title + " > " + t.Title
}

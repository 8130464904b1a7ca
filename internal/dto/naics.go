package dto

// ── NAICS 目录 DTO ──

// NAICSValidateRequest 三级组合校验请求
type NAICSValidateRequest struct {
	Sector   string `json:"sector"   binding:"required"`
	Category string `json:"category" binding:"required,len=3"`
	Type     string `json:"type"     binding:"required,len=6"`
}

// NAICSCodeResponse 目录条目
type NAICSCodeResponse struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	Level  int    `json:"level"`
	Parent string `json:"parent,omitempty"`
}

// NAICSDescribeResponse 代码描述
type NAICSDescribeResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Known       bool   `json:"known"`
}

// NAICSImportResponse 工作簿导入结果
type NAICSImportResponse struct {
	Sectors    int `json:"sectors"`
	Categories int `json:"categories"`
	Types      int `json:"types"`
}

package model

// NAICSCode NAICS 目录条目 — 对应 naics_codes
type NAICSCode struct {
	Code   string `gorm:"type:varchar(10);primaryKey" json:"code"`
	Title  string `gorm:"type:varchar(300);not null"  json:"title"`
	Level  int    `gorm:"not null"                    json:"level"`
	Parent string `gorm:"type:varchar(10)"            json:"parent,omitempty"`
}

// TableName 指定表名
func (NAICSCode) TableName() string { return "naics_codes" }

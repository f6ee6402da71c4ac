package entity

import (
	"time"

	"gorm.io/datatypes"
)

// RateCard 费率表版本（每次上传生成一条，只增不改）
type RateCard struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement:false"` // 雪花 ID
	Version string `gorm:"column:version;type:varchar(32);not null;uniqueIndex:uk_version"`

	// 费率表原文
	Table datatypes.JSON `gorm:"column:rate_table;type:json;not null"`

	Note      string `gorm:"column:note;type:varchar(255)"`
	CreatedBy string `gorm:"column:created_by;type:varchar(64)"`

	// 时间戳
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_created_at"`
}

// TableName 指定表名
func (RateCard) TableName() string {
	return "rate_cards"
}

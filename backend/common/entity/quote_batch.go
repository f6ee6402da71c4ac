package entity

import (
	"time"

	"gorm.io/datatypes"
)

// QuoteBatch 批量报价（包含逐条结果）
type QuoteBatch struct {
	// 基础字段
	ID        string `gorm:"column:id;primaryKey;type:varchar(64)"`
	RequestID string `gorm:"column:request_id;type:varchar(64);not null"`
	ItemCount int    `gorm:"column:item_count;not null"`

	// 报价输入
	Items datatypes.JSON `gorm:"column:items;type:json;not null"`

	// 报价状态与结果
	Status   string         `gorm:"column:status;type:varchar(16);not null;default:'QUOTING';index:idx_status_created"`
	Results  datatypes.JSON `gorm:"column:results;type:json"`
	Summary  datatypes.JSON `gorm:"column:summary;type:json"`
	ErrorMsg string         `gorm:"column:error_msg;type:varchar(512)"`

	// 时间戳
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_status_created"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (QuoteBatch) TableName() string {
	return "quote_batches"
}

// 批次状态常量
const (
	BatchStatusQuoting = "QUOTING"
	BatchStatusQuoted  = "QUOTED"
	BatchStatusFailed  = "FAILED"
)

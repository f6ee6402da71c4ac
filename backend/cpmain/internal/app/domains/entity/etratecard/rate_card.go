package etratecard

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cpq/backend/common/pricing"
)

// 错误定义
var (
	ErrInvalidVersion = errors.New("rate card version cannot be empty")
	ErrEmptyTable     = errors.New("rate table has no services")
)

// RateCard 费率表版本聚合根（领域对象）
type RateCard struct {
	ID        int64              // 雪花 ID
	Version   string             // 版本号
	Raw       json.RawMessage    // 上传原文，原样下发给 worker
	Table     *pricing.RateTable // 解析后的费率表
	Note      string             // 备注
	CreatedBy string             // 上传人
	CreatedAt time.Time          // 创建时间
}

// NewRateCard 创建费率表版本（工厂方法）
// 拒绝非法 JSON、负数费率和空表
func NewRateCard(id int64, version string, raw []byte, note, createdBy string) (*RateCard, error) {
	if version == "" {
		return nil, ErrInvalidVersion
	}
	if err := pricing.ValidateRaw(raw); err != nil {
		return nil, err
	}

	table, err := ParseTable(raw)
	if err != nil {
		return nil, err
	}
	if table.Empty() {
		return nil, ErrEmptyTable
	}

	return &RateCard{
		ID:        id,
		Version:   version,
		Raw:       append(json.RawMessage(nil), raw...),
		Table:     table,
		Note:      note,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}, nil
}

// ParseTable 解析费率表原文
// 空表合法，缺失的服务在计价时降级为缺失费率或 MODE_UNAVAILABLE
func ParseTable(raw []byte) (*pricing.RateTable, error) {
	var table pricing.RateTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("invalid rate table json: %w", err)
	}
	return &table, nil
}

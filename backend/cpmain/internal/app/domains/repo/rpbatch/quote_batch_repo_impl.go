package rpbatch

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cpq/backend/common/entity"
	"cpq/backend/common/model"
	"cpq/backend/cpmain/internal/app/domains/entity/etbatch"
)

// maxErrorMsgLen 与 error_msg 列宽一致
const maxErrorMsgLen = 512

// QuoteBatchRepositoryImpl 批量报价仓储实现（MySQL）
type QuoteBatchRepositoryImpl struct {
	db *gorm.DB
}

// NewQuoteBatchRepository 创建仓储实例
func NewQuoteBatchRepository(db *gorm.DB) QuoteBatchRepository {
	return &QuoteBatchRepositoryImpl{db: db}
}

// Create 创建批次
func (r *QuoteBatchRepositoryImpl) Create(ctx context.Context, batch *etbatch.QuoteBatch) error {
	po, err := toGormModel(batch)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(po).Error
}

// GetByID 根据 ID 查询
func (r *QuoteBatchRepositoryImpl) GetByID(ctx context.Context, batchID string) (*etbatch.QuoteBatch, error) {
	var po entity.QuoteBatch
	err := r.db.WithContext(ctx).Where("id = ?", batchID).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomainModel(&po)
}

// UpdateResult 写入批次结果
func (r *QuoteBatchRepositoryImpl) UpdateResult(ctx context.Context, batch *etbatch.QuoteBatch) error {
	updates, err := resultUpdates(batch)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&entity.QuoteBatch{}).
		Where("id = ?", batch.ID).
		Updates(updates).Error
}

// resultUpdates 结果字段更新集合
func resultUpdates(batch *etbatch.QuoteBatch) (map[string]interface{}, error) {
	updates := map[string]interface{}{
		"status":     string(batch.Status),
		"error_msg":  truncate(batch.ErrorMsg, maxErrorMsgLen),
		"updated_at": batch.UpdatedAt,
	}

	// 成功时保存结果与汇总
	if batch.Results != nil {
		results, err := json.Marshal(batch.Results)
		if err != nil {
			return nil, err
		}
		updates["results"] = datatypes.JSON(results)
	}
	if batch.Summary != nil {
		summary, err := json.Marshal(batch.Summary)
		if err != nil {
			return nil, err
		}
		updates["summary"] = datatypes.JSON(summary)
	}
	return updates, nil
}

// toGormModel 领域对象转换为 GORM 模型
func toGormModel(batch *etbatch.QuoteBatch) (*entity.QuoteBatch, error) {
	items, err := json.Marshal(batch.Items)
	if err != nil {
		return nil, err
	}

	po := &entity.QuoteBatch{
		ID:        batch.ID,
		RequestID: batch.RequestID,
		ItemCount: len(batch.Items),
		Items:     items,
		Status:    string(batch.Status),
		ErrorMsg:  truncate(batch.ErrorMsg, maxErrorMsgLen),
		CreatedAt: batch.CreatedAt,
		UpdatedAt: batch.UpdatedAt,
	}
	return po, nil
}

// toDomainModel GORM 模型转换为领域对象
func toDomainModel(po *entity.QuoteBatch) (*etbatch.QuoteBatch, error) {
	batch := &etbatch.QuoteBatch{
		ID:        po.ID,
		RequestID: po.RequestID,
		Status:    etbatch.BatchStatus(po.Status),
		ErrorMsg:  po.ErrorMsg,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	}

	if err := json.Unmarshal(po.Items, &batch.Items); err != nil {
		return nil, err
	}
	if len(po.Results) > 0 {
		if err := json.Unmarshal(po.Results, &batch.Results); err != nil {
			return nil, err
		}
	}
	if len(po.Summary) > 0 {
		var summary model.BatchSummary
		if err := json.Unmarshal(po.Summary, &summary); err != nil {
			return nil, err
		}
		batch.Summary = &summary
	}
	return batch, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

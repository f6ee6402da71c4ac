package request

import "cpq/backend/common/model"

// ToItem 将单笔报价请求转换为统一输入
func (r *CreateQuoteRequest) ToItem() model.QuoteBatchItem {
	return model.QuoteBatchItem{
		ServiceType:        r.ServiceType,
		ConsignmentType:    r.ConsignmentType,
		Mode:               r.Mode,
		DestinationPincode: r.DestinationPincode,
		WeightKg:           r.WeightKg,
	}
}

// ToItems 将批量请求转换为 Job 输入
func (r *CreateQuoteBatchRequest) ToItems() []model.QuoteBatchItem {
	items := make([]model.QuoteBatchItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, model.QuoteBatchItem{
			Ref:                it.Ref,
			ServiceType:        it.ServiceType,
			ConsignmentType:    it.ConsignmentType,
			Mode:               it.Mode,
			DestinationPincode: it.DestinationPincode,
			WeightKg:           it.WeightKg,
		})
	}
	return items
}

package response

import (
	"cpq/backend/cpmain/internal/app/domains/entity/etbatch"
	"cpq/backend/cpmain/internal/app/domains/entity/etprimitive"
	"cpq/backend/cpmain/internal/app/domains/entity/etratecard"
	"cpq/backend/cpmain/internal/app/domains/services/svquote"
)

// FromOutcome 从报价结果转换为响应 DTO
func FromOutcome(out *svquote.Outcome) *QuoteResponse {
	return &QuoteResponse{
		Quote:            out.Quote,
		RateTableVersion: out.RateTableVersion,
	}
}

// FromRouteInfo 路线查询结果
func FromRouteInfo(info *svquote.RouteInfo) *RouteResponse {
	return &RouteResponse{
		Pincode: info.Pincode,
		Route:   string(info.Route),
		Label:   info.Label,
	}
}

// FromBatchEntity 从领域对象转换为响应 DTO
func FromBatchEntity(batch *etbatch.QuoteBatch) *QuoteBatchResponse {
	return &QuoteBatchResponse{
		ID:        batch.ID,
		RequestID: batch.RequestID,
		Status:    string(batch.Status),
		ItemCount: len(batch.Items),
		Results:   batch.Results,
		Summary:   batch.Summary,
		Error:     batch.ErrorMsg,
		CreatedAt: batch.CreatedAt,
		UpdatedAt: batch.UpdatedAt,
	}
}

// FromRateCardEntity 费率表版本元信息
func FromRateCardEntity(card *etratecard.RateCard) *RateCardResponse {
	return &RateCardResponse{
		Version:   card.Version,
		Note:      card.Note,
		CreatedBy: card.CreatedBy,
		CreatedAt: card.CreatedAt,
	}
}

// FromRateCardList 版本列表
func FromRateCardList(cards []*etratecard.RateCard, page etprimitive.Pagination) *RateCardListResponse {
	items := make([]*RateCardResponse, 0, len(cards))
	for _, c := range cards {
		items = append(items, FromRateCardEntity(c))
	}
	return &RateCardListResponse{
		Items: items,
		Page:  page.Page,
		Limit: page.Limit,
		Total: page.Total,
	}
}

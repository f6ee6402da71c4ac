package model

import "cpq/backend/common/pricing"

// 单条报价状态
const (
	ItemStatusQuoted = "QUOTED"
	ItemStatusFailed = "FAILED"
)

// QuoteItemResult 单条报价结果
type QuoteItemResult struct {
	Index  int                 `json:"index"`
	Ref    string              `json:"ref,omitempty"`
	Status string              `json:"status"` // QUOTED / FAILED
	Quote  *pricing.Quote      `json:"quote,omitempty"`
	Error  *pricing.QuoteError `json:"error,omitempty"`
}

// BatchSummary 批次汇总
type BatchSummary struct {
	Total       int     `json:"total"`
	Quoted      int     `json:"quoted"`
	Failed      int     `json:"failed"`
	TotalAmount float64 `json:"total_amount"`
}

// Summarize 统计结果
func Summarize(results []QuoteItemResult) BatchSummary {
	s := BatchSummary{Total: len(results)}
	var total float64
	for _, r := range results {
		if r.Status == ItemStatusQuoted && r.Quote != nil {
			s.Quoted++
			total += r.Quote.Amount
			continue
		}
		s.Failed++
	}
	s.TotalAmount = pricing.RoundAmount(total)
	return s
}

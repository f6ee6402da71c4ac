package services

import (
	"context"
	"errors"
	"strings"

	"cpq/backend/common/model"
	"cpq/backend/common/pricing"
	"cpq/backend/cpsync/pkg/errorutil"
	"cpq/backend/cpsync/pkg/logger"
)

// RateSource 费率表来源（ratetable.Cache）
type RateSource interface {
	Get(ctx context.Context) (*pricing.RateTable, error)
}

// BatchQuoter 批量报价（逐条调用计价器，单条失败不影响整批）
type BatchQuoter struct {
	rates RateSource
	calc  *pricing.Calculator
	log   logger.Logger
}

// NewBatchQuoter 创建批量报价器
func NewBatchQuoter(rates RateSource, calc *pricing.Calculator, log logger.Logger) *BatchQuoter {
	return &BatchQuoter{
		rates: rates,
		calc:  calc,
		log:   log,
	}
}

// QuoteAll 逐条报价
// 仅费率表拉取失败时返回错误（可重试），单条报价错误写入结果
func (q *BatchQuoter) QuoteAll(ctx context.Context, items []model.QuoteBatchItem) ([]model.QuoteItemResult, error) {
	// 1. 获取费率表（会话内缓存）
	table, err := q.rates.Get(ctx)
	if err != nil {
		return nil, errorutil.RetriableWithDetails("rate table unavailable", err.Error())
	}

	// 2. 逐条计价
	results := make([]model.QuoteItemResult, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, errorutil.RetriableWithDetails("batch quoting interrupted", err.Error())
		}
		results = append(results, q.quoteOne(ctx, table, i, item))
	}
	return results, nil
}

func (q *BatchQuoter) quoteOne(ctx context.Context, table *pricing.RateTable, index int, item model.QuoteBatchItem) model.QuoteItemResult {
	result := model.QuoteItemResult{Index: index, Ref: item.Ref}

	quote, err := q.calc.ComputeRaw(table, item.RawRequest())
	if err == nil {
		result.Status = model.ItemStatusQuoted
		result.Quote = quote
		if quote.HasMissingRates() {
			q.log.Warnf(ctx, "[BatchQuoter] item %d priced with missing rates (counted as 0): %s",
				index, strings.Join(quote.MissingRates, ", "))
		}
		return result
	}

	result.Status = model.ItemStatusFailed
	var qe *pricing.QuoteError
	if errors.As(err, &qe) {
		result.Error = qe
	} else {
		result.Error = &pricing.QuoteError{Kind: pricing.KindInvalidOption, Message: err.Error()}
	}
	q.log.Debugf(ctx, "[BatchQuoter] item %d rejected: %s", index, result.Error.Message)
	return result
}

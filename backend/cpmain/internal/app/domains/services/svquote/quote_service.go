package svquote

import (
	"context"
	"errors"
	"strings"
	"time"

	"cpq/backend/common/model"
	"cpq/backend/common/pricing"
	"cpq/backend/cpmain/internal/app/domains/entity/etratecard"
	"cpq/backend/cpmain/internal/app/pkg/errorx"
	"cpq/backend/cpmain/internal/app/pkg/logger"
	"cpq/backend/cpmain/internal/app/pkg/metrics"
)

// RateSource 当前费率表来源（mdratecard.RateCardModule）
type RateSource interface {
	Current(ctx context.Context) (*etratecard.RateCard, error)
}

// QuoteService 单笔报价服务
type QuoteService struct {
	calc    *pricing.Calculator
	rates   RateSource
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewQuoteService 创建报价服务
func NewQuoteService(calc *pricing.Calculator, rates RateSource, m *metrics.Metrics, log logger.Logger) *QuoteService {
	return &QuoteService{
		calc:    calc,
		rates:   rates,
		metrics: m,
		logger:  log,
	}
}

// Outcome 报价结果及所用费率表版本
type Outcome struct {
	Quote            *pricing.Quote
	RateTableVersion string
}

// Quote 计算单笔报价
// 1. 读取当前费率表（缺失时直接返回 RATE_TABLE_UNAVAILABLE）
// 2. 校验邮编和重量后解析枚举并计价
// 3. 记录指标
func (s *QuoteService) Quote(ctx context.Context, item model.QuoteBatchItem) (*Outcome, error) {
	start := time.Now()
	service, mode := metricLabels(item)

	card, err := s.rates.Current(ctx)
	if err != nil {
		if !errors.Is(err, errorx.ErrRateCardNotFound) {
			s.logger.ErrorContext(ctx, "Load rate table failed", "error", err)
		}
		qe := pricing.RateTableUnavailable()
		s.observe(service, mode, qe, start)
		return nil, qe
	}

	quote, err := s.calc.ComputeRaw(card.Table, item.RawRequest())
	s.observe(service, mode, err, start)
	if err != nil {
		return nil, err
	}

	if quote.HasMissingRates() {
		s.logger.WarnContext(ctx, "Quote priced with missing rates (counted as 0)",
			"version", card.Version,
			"paths", strings.Join(quote.MissingRates, ","),
		)
		s.metrics.MissingRates(quote.MissingRates)
	}

	return &Outcome{Quote: quote, RateTableVersion: card.Version}, nil
}

// RouteInfo 邮编路线
type RouteInfo struct {
	Pincode string
	Route   pricing.RouteKey
	Label   string
}

// Route 查询邮编所属路线
func (s *QuoteService) Route(pincode string) (*RouteInfo, error) {
	pincode = strings.TrimSpace(pincode)
	route, err := s.calc.Route(pincode)
	if err != nil {
		return nil, err
	}
	return &RouteInfo{
		Pincode: pincode,
		Route:   route,
		Label:   pricing.RouteLabel(route),
	}, nil
}

func (s *QuoteService) observe(service, mode string, err error, start time.Time) {
	result := "ok"
	if err != nil {
		result = "error"
		var qe *pricing.QuoteError
		if errors.As(err, &qe) {
			result = string(qe.Kind)
		}
	}
	s.metrics.ObserveQuote(service, mode, result, time.Since(start))
}

// metricLabels 只保留已知枚举，避免标签基数膨胀
func metricLabels(item model.QuoteBatchItem) (string, string) {
	service, mode := "unknown", "none"
	st, err := pricing.ParseServiceType(item.ServiceType)
	if err != nil {
		return service, mode
	}
	service = string(st)
	if st == pricing.ServiceStandard {
		if m, err := pricing.ParseMode(item.Mode); err == nil {
			mode = string(m)
		} else {
			mode = "unknown"
		}
	}
	return service, mode
}

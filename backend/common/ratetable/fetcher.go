package ratetable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"cpq/backend/common/model"
	"cpq/backend/common/pricing"
)

const tracerName = "cpq/ratetable"

// maxBodySize 费率表响应体上限
const maxBodySize = 4 << 20

// Fetcher 费率表来源
type Fetcher interface {
	Fetch(ctx context.Context) (*pricing.RateTable, error)
}

// ErrNoRateTable 来源没有返回费率表（空响应或 null）
var ErrNoRateTable = errors.New("rate table is empty")

// HTTPFetcher 通过定价接口拉取费率表
type HTTPFetcher struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTPFetcher 创建 HTTP 拉取器，timeout<=0 时不设超时
func NewHTTPFetcher(endpoint, token string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// envelope 兼容 {meta, data} 包装的响应
type envelope struct {
	Meta *model.MetaInfo `json:"meta"`
	Data json.RawMessage `json:"data"`
}

// Fetch 拉取费率表
// 响应体可以是裸费率表，也可以是 {meta, data} 包装
func (f *HTTPFetcher) Fetch(ctx context.Context) (*pricing.RateTable, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ratetable.HTTPFetcher.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", f.endpoint))

	table, err := f.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.AddEvent("rate table loaded")
	return table, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context) (*pricing.RateTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build rate table request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("X-Token", f.token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rate table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rate table failed: status=%d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read rate table: %w", err)
	}
	return Decode(body)
}

// Decode 解析费率表 JSON（裸表或 {meta, data} 包装）
func Decode(body []byte) (*pricing.RateTable, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode rate table: %w", err)
	}
	if env.Meta != nil {
		if env.Meta.Code != model.CodeOK {
			return nil, fmt.Errorf("rate table endpoint error: code=%d, message=%s", env.Meta.Code, env.Meta.Message)
		}
		body = env.Data
	}

	var table pricing.RateTable
	if len(body) == 0 || string(body) == "null" {
		return nil, ErrNoRateTable
	}
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, fmt.Errorf("decode rate table: %w", err)
	}
	return &table, nil
}

// FetcherFunc 函数适配为 Fetcher
type FetcherFunc func(ctx context.Context) (*pricing.RateTable, error)

// Fetch 实现 Fetcher
func (fn FetcherFunc) Fetch(ctx context.Context) (*pricing.RateTable, error) {
	return fn(ctx)
}

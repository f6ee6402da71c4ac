package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config 链路追踪配置
type Config struct {
	// Endpoint Jaeger collector 地址，如 http://127.0.0.1:14268/api/traces
	// 为空时仍安装 TracerProvider（日志可以拿到 trace_id），但不导出 Span
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"` // <=0 或 >=1 时全采样
}

// Shutdown 刷新并关闭 TracerProvider
type Shutdown func(ctx context.Context) error

// InitTracerProvider 创建并注册全局 TracerProvider 与 TextMapPropagator
func InitTracerProvider(serviceName string, cfg Config) (Shutdown, error) {
	var exporter sdktrace.SpanExporter
	if cfg.Endpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Endpoint)))
		if err != nil {
			return nil, err
		}
		exporter = exp
	}

	tp := newProvider(serviceName, exporter, cfg.SampleRatio, true)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp.Shutdown, nil
}

// newProvider batch=false 时同步导出，测试里用来立即读取 Span
func newProvider(serviceName string, exporter sdktrace.SpanExporter, ratio float64, batch bool) *sdktrace.TracerProvider {
	sampler := sdktrace.AlwaysSample()
	if ratio > 0 && ratio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	}
	if exporter != nil {
		if batch {
			opts = append(opts, sdktrace.WithBatcher(exporter))
		} else {
			opts = append(opts, sdktrace.WithSyncer(exporter))
		}
	}
	return sdktrace.NewTracerProvider(opts...)
}

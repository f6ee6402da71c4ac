package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"gopkg.in/yaml.v3"

	"cpq/backend/common/pricing"
	"cpq/backend/common/ratetable"
	"cpq/backend/common/tracing"
	"cpq/backend/cpsync/pkg/config"
)

type rootOptions struct {
	configPath    string // 可选，读取 worker.yaml 中的 pricing 覆盖
	traceEndpoint string // 非空时把 Span 上报到 Jaeger collector

	shutdownTracer tracing.Shutdown
}

type quoteOptions struct {
	rates    string
	endpoint string
	token    string
	timeout  time.Duration

	service     string
	consignment string
	mode        string
	pincode     string
	weight      string
	asJSON      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "quotectl",
		Short:        "Courier shipment quotes from a rate table",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.traceEndpoint == "" {
				return nil
			}
			shutdown, err := tracing.InitTracerProvider("quotectl", tracing.Config{Endpoint: opts.traceEndpoint})
			if err != nil {
				return fmt.Errorf("init tracer: %w", err)
			}
			opts.shutdownTracer = shutdown
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.shutdownTracer == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return opts.shutdownTracer(ctx)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "worker config with pricing rules and north east bands")
	pf.StringVar(&opts.traceEndpoint, "trace-endpoint", "", "jaeger collector, e.g. http://127.0.0.1:14268/api/traces")

	root.AddCommand(newQuoteCmd(opts), newRouteCmd(opts), newValidateCmd())
	return root
}

func newQuoteCmd(root *rootOptions) *cobra.Command {
	opts := &quoteOptions{}
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute a quote for one shipment",
		Example: `  quotectl quote --rates rates.json --service standard --type dox --mode air --pincode 781001 --weight 0.8
  quotectl quote --endpoint http://127.0.0.1:8080/api/v1/rate-table --service priority --pincode 110001 --weight 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd.Context(), cmd.OutOrStdout(), root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.rates, "rates", "", "rate table file (.json/.yaml)")
	f.StringVar(&opts.endpoint, "endpoint", "", "pricing endpoint serving the rate table")
	f.StringVar(&opts.token, "token", "", "X-Token sent to the pricing endpoint")
	f.DurationVar(&opts.timeout, "timeout", 5*time.Second, "pricing endpoint timeout")
	f.StringVar(&opts.service, "service", "standard", "standard | priority")
	f.StringVar(&opts.consignment, "type", "dox", "dox | non-dox (standard only)")
	f.StringVar(&opts.mode, "mode", "air", "air | road | train (standard only)")
	f.StringVar(&opts.pincode, "pincode", "", "destination pincode")
	f.StringVar(&opts.weight, "weight", "", "actual weight in kg")
	f.BoolVar(&opts.asJSON, "json", false, "print the quote as JSON")
	_ = cmd.MarkFlagRequired("pincode")
	_ = cmd.MarkFlagRequired("weight")
	return cmd
}

func runQuote(ctx context.Context, out io.Writer, root *rootOptions, opts *quoteOptions) error {
	ctx, span := otel.Tracer("cpq/quotectl").Start(ctx, "quotectl.quote")
	defer span.End()

	// 1. 费率表与规则
	table, err := loadTable(ctx, opts)
	if err != nil {
		return err
	}
	calc, err := newCalculator(root)
	if err != nil {
		return err
	}

	// 2. 计价（邮编、重量先于枚举校验）
	quote, err := calc.ComputeRaw(table, opts.request())
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(quote)
	}
	printQuote(out, quote)
	return nil
}

// request 无法解析的重量记为 0，由计价器按 INVALID_WEIGHT 报告
func (o *quoteOptions) request() pricing.RawRequest {
	weight, _ := pricing.ParseWeight(o.weight)
	return pricing.RawRequest{
		ServiceType:     o.service,
		ConsignmentType: o.consignment,
		Mode:            o.mode,
		Destination:     strings.TrimSpace(o.pincode),
		WeightKg:        weight,
	}
}

func loadTable(ctx context.Context, opts *quoteOptions) (*pricing.RateTable, error) {
	switch {
	case opts.rates != "":
		return ratetable.LoadFile(opts.rates)
	case opts.endpoint != "":
		return ratetable.NewHTTPFetcher(opts.endpoint, opts.token, opts.timeout).Fetch(ctx)
	}
	return nil, fmt.Errorf("--rates or --endpoint is required")
}

func newCalculator(root *rootOptions) (*pricing.Calculator, error) {
	if root.configPath == "" {
		return pricing.NewCalculator(nil, pricing.DefaultRules()), nil
	}
	cfg, err := config.Load(root.configPath)
	if err != nil {
		return nil, err
	}
	return pricing.NewCalculator(pricing.NewRouteClassifier(cfg.Pricing.NorthEastBands), cfg.Pricing.Rules), nil
}

func printQuote(out io.Writer, q *pricing.Quote) {
	fmt.Fprintf(out, "Route:       %s\n", q.RouteLabel)
	fmt.Fprintf(out, "Service:     %s\n", q.ServiceLabel)
	fmt.Fprintf(out, "Mode:        %s\n", q.ModeLabel)
	weight := fmt.Sprintf("%g kg", q.ChargeableWeightKg)
	if q.MinimumApplied {
		weight += " (minimum applied)"
	}
	fmt.Fprintf(out, "Chargeable:  %s\n", weight)
	fmt.Fprintf(out, "Amount:      ₹%.2f\n", q.Amount)
	if q.HasMissingRates() {
		fmt.Fprintf(out, "Warning:     missing rates counted as 0: %s\n", strings.Join(q.MissingRates, ", "))
	}
}

func newRouteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "route PINCODE",
		Short: "Show which route a destination pincode falls in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := newCalculator(root)
			if err != nil {
				return err
			}
			pincode := strings.TrimSpace(args[0])
			if length := calc.Rules().PincodeLength; len(pincode) != length {
				return fmt.Errorf("pincode must be %d digits: %q", length, pincode)
			}
			route := calc.Classifier().Classify(pincode)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", pincode, route, pricing.RouteLabel(route))
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a rate table file before uploading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0])
		},
	}
}

func runValidate(out io.Writer, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// 负数费率只能在原文中发现，YAML 先转成 JSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc interface{}
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("invalid rate table yaml: %w", err)
		}
		if raw, err = json.Marshal(doc); err != nil {
			return fmt.Errorf("invalid rate table yaml: %w", err)
		}
	}
	if err := pricing.ValidateRaw(raw); err != nil {
		return err
	}

	table, err := ratetable.LoadFile(path)
	if err != nil {
		return err
	}
	if table.Empty() {
		return fmt.Errorf("%s: rate table has no services", path)
	}

	fmt.Fprintf(out, "%s: ok\n", path)
	return nil
}

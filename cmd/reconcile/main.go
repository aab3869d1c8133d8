// Command reconcile matches a forecast file against an actual file, prints
// the accuracy summary and optionally exports the matched records.
//
//	reconcile -forecast forecast.csv -actual actual.xlsx -out report.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Anest2009/Enerlytics/internal/accuracy"
	"github.com/Anest2009/Enerlytics/internal/config"
	"github.com/Anest2009/Enerlytics/internal/exporter"
	"github.com/Anest2009/Enerlytics/internal/infrastructure"
	"github.com/Anest2009/Enerlytics/internal/operations"
	"github.com/Anest2009/Enerlytics/internal/validation"
	"github.com/Anest2009/Enerlytics/pkg/contracts"
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// options are the parsed command line flags
type options struct {
	forecast    string
	actual      string
	out         string
	format      string
	summary     string
	configFile  string
	valueColumn string
	version     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger := infrastructure.NewLogger(stderr, cfg.Logging.Level)

	req, err := buildRequest(opts, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid arguments", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	otelCfg.EnableMetrics = false
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer providers.Shutdown(context.WithoutCancel(ctx))

	tracer, err := operations.NewOperationTracer(providers)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	opCfg := operations.ConfigFrom(cfg.Analysis)
	opCfg.ValueColumn = opts.valueColumn
	manager := operations.NewAnalysisManager(opCfg, tracer, logger)

	state, err := manager.Execute(ctx, "", req)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	result := state.GetResult()
	if result.TotalRecords == 0 {
		fmt.Fprintln(stderr, "Warning: No matching records found between forecast and actual data")
	}

	if err := accuracy.WriteSummary(stdout, result); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.summary != "" {
		if err := writeSummaryFile(opts.summary, result); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if path := state.GetExportPath(); path != "" {
		fmt.Fprintf(stdout, "\nExported %d records to %s\n", result.TotalRecords, path)
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.forecast, "forecast", "", "forecast file (.csv, .txt or .xlsx)")
	fs.StringVar(&opts.actual, "actual", "", "actual file (.csv, .txt or .xlsx)")
	fs.StringVar(&opts.out, "out", "", "export path for the matched records (format inferred from extension)")
	fs.StringVar(&opts.format, "format", "", "export format: csv or xlsx")
	fs.StringVar(&opts.summary, "summary", "", "also write the summary report to this file")
	fs.StringVar(&opts.configFile, "config", "", "YAML config file")
	fs.StringVar(&opts.valueColumn, "value-column", "", "value column name for long format inputs")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.version {
		return opts, nil
	}
	if opts.forecast == "" || opts.actual == "" {
		fmt.Fprintln(stderr, "Both -forecast and -actual are required")
		fs.Usage()
		return nil, flag.ErrHelp
	}
	return opts, nil
}

// buildRequest validates the inputs and resolves the export settings. An
// export happens when -out or -format is given.
func buildRequest(opts *options, logger *slog.Logger) (operations.AnalysisRequest, error) {
	validator := validation.NewFileValidator(logger)
	req := operations.AnalysisRequest{
		ForecastPath: opts.forecast,
		ActualPath:   opts.actual,
	}

	for _, path := range []string{opts.forecast, opts.actual} {
		if err := validator.ValidateInputFile(path); err != nil {
			return req, err
		}
	}

	if opts.out == "" && opts.format == "" {
		return req, nil
	}

	formatName := strings.ToLower(opts.format)
	if formatName == "" && strings.EqualFold(filepath.Ext(opts.out), domain.ExportFormatXLSX.Extension()) {
		formatName = string(domain.ExportFormatXLSX)
	}
	format, err := exporter.ParseFormat(formatName)
	if err != nil {
		return req, err
	}
	req.ExportFormat = format

	if opts.out != "" {
		if err := validator.ValidateExportPath(opts.out, format); err != nil {
			return req, err
		}
		req.ExportPath = opts.out
	}
	return req, nil
}

func writeSummaryFile(path string, result *domain.AnalysisResult) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create summary directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	if err := accuracy.WriteSummary(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

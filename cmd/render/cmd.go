// Command render runs the widget data pipeline over a local rows file or a
// JSON endpoint and prints the resulting payload.
//
//	render -type bar -rows rows.json -config config.json
//	render -type kpi -url https://example.com/report.json -rows-path data.items -config kpi.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/segmentio/encoding/json"

	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
	"github.com/GregMSThompson/dashboard-backend/internal/client/httpsource"
	"github.com/GregMSThompson/dashboard-backend/internal/widgetdata"
	"github.com/GregMSThompson/dashboard-backend/pkg/logger"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "render:", err)
		os.Exit(1)
	}
}

type options struct {
	widgetType string
	rowsFile   string
	url        string
	rowsPath   string
	authHeader string
	configFile string
	fields     string
	logLevel   string
	timeout    time.Duration
	maxRows    int
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.widgetType, "type", widgetdata.TypeTable, "widget type")
	fs.StringVar(&o.rowsFile, "rows", "", `rows JSON file ("-" for stdin)`)
	fs.StringVar(&o.url, "url", "", "fetch rows from this JSON endpoint instead of -rows")
	fs.StringVar(&o.rowsPath, "rows-path", "", "dot-separated path to the rows array in the -url response")
	fs.StringVar(&o.authHeader, "auth", "", "Authorization header sent with -url")
	fs.StringVar(&o.configFile, "config", "", "widget config JSON file")
	fs.StringVar(&o.fields, "fields", "", "comma-separated source field order")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level")
	fs.DurationVar(&o.timeout, "timeout", 15*time.Second, "timeout for -url")
	fs.IntVar(&o.maxRows, "max-rows", 50_000, "row limit for -url")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if (o.rowsFile == "") == (o.url == "") {
		return o, fmt.Errorf("exactly one of -rows or -url is required")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	log := slog.New(logger.NewCloudRunHandlerTo(stderr, logger.ParseLevel(o.logLevel)))
	ctx = logger.ToContext(ctx, log)

	var cfg aggregation.WidgetConfig
	if o.configFile != "" {
		if err := readJSON(o.configFile, stdin, &cfg); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	src, err := loadSource(ctx, o, stdin)
	if err != nil {
		return err
	}
	if o.fields != "" {
		src.Fields = strings.Split(o.fields, ",")
	}
	if !widgetdata.IsSupported(o.widgetType) {
		log.Warn("unknown widget type, rendering as table", "type", o.widgetType)
	}

	payload := widgetdata.Process(o.widgetType, src, cfg)
	log.Debug("rendered", "rows", len(src.Rows), "shape", payload.Shape, "empty", payload.Empty)

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return err
}

func loadSource(ctx context.Context, o options, stdin io.Reader) (widgetdata.Source, error) {
	if o.url != "" {
		res, err := httpsource.New(o.timeout, o.maxRows).Fetch(ctx, httpsource.Request{
			URL:        o.url,
			RowsPath:   o.rowsPath,
			AuthHeader: o.authHeader,
		})
		if err != nil {
			return widgetdata.Source{}, err
		}
		return widgetdata.Source{Rows: res.Rows, Fields: res.Fields}, nil
	}

	var rows []aggregation.Row
	if err := readJSON(o.rowsFile, stdin, &rows); err != nil {
		return widgetdata.Source{}, fmt.Errorf("rows: %w", err)
	}
	return widgetdata.Source{Rows: rows}, nil
}

func readJSON(path string, stdin io.Reader, dst any) error {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return json.NewDecoder(r).Decode(dst)
}

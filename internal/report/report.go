// Package report persists a run report and its one-line summary.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/JakeFAU/pickup-checker/internal/pickup"
	"github.com/JakeFAU/pickup-checker/internal/storage"
	"go.uber.org/zap"
)

// Default artifact names.
const (
	DefaultReportName  = "latest.json"
	DefaultSummaryName = "last.txt"
)

// Config names the artifacts written per run.
type Config struct {
	ReportName  string
	SummaryName string
}

// Writer stores the report and summary and echoes the report to stdout.
type Writer struct {
	store  storage.BlobStore
	stdout io.Writer
	cfg    Config
	logger *zap.Logger
}

// NewWriter returns a Writer. A nil stdout disables the echo.
func NewWriter(store storage.BlobStore, stdout io.Writer, cfg Config, logger *zap.Logger) *Writer {
	if cfg.ReportName == "" {
		cfg.ReportName = DefaultReportName
	}
	if cfg.SummaryName == "" {
		cfg.SummaryName = DefaultSummaryName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{store: store, stdout: stdout, cfg: cfg, logger: logger.Named("report")}
}

// Write persists rep. Any storage failure is returned.
func (w *Writer) Write(ctx context.Context, rep pickup.Report) error {
	pretty, err := encode(rep, "  ")
	if err != nil {
		return err
	}
	uri, err := w.store.PutObject(ctx, w.cfg.ReportName, "application/json", bytes.NewReader(pretty))
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	w.logger.Info("wrote report", zap.String("uri", uri), zap.String("run_id", rep.RunID))

	summary := Summary(rep) + "\n"
	if _, err := w.store.PutObject(ctx, w.cfg.SummaryName, "text/plain; charset=utf-8", bytes.NewReader([]byte(summary))); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if w.stdout != nil {
		compact, err := encode(rep, "")
		if err != nil {
			return err
		}
		if _, err := w.stdout.Write(compact); err != nil {
			return fmt.Errorf("print report: %w", err)
		}
	}
	return nil
}

// Summary renders the one-line run summary.
func Summary(rep pickup.Report) string {
	if len(rep.Rows) == 0 {
		return fmt.Sprintf("%s - no rows (modal might have failed)", rep.Timestamp)
	}
	return fmt.Sprintf("%s - %d available out of %d stores", rep.Timestamp, rep.AvailableCount(), len(rep.Rows))
}

// encode marshals rep without HTML escaping so store names and the
// notification emoji stay readable.
func encode(rep pickup.Report, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(normalize(rep)); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// normalize guarantees list fields serialise as [] rather than null.
func normalize(rep pickup.Report) pickup.Report {
	if rep.Zips == nil {
		rep.Zips = []string{}
	}
	if rep.Rows == nil {
		rep.Rows = []pickup.Row{}
	}
	if rep.Errors == nil {
		rep.Errors = []string{}
	}
	return rep
}

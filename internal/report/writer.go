package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/fnol-triage/internal/common"
	"github.com/joseph-ayodele/fnol-triage/internal/entity"
)

const indent = "    "

// Encode renders a record as indented JSON with a trailing newline.
func Encode(rec entity.ResultRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Writer validates result records and writes them to <dir>/<inputFile>.json,
// echoing each record to an optional stream.
type Writer struct {
	dir    string
	echo   io.Writer
	schema *jsonschema.Schema
	logger *slog.Logger
}

// NewWriter compiles the record schema for fieldNames/routes. An empty dir
// disables file output.
func NewWriter(dir string, fieldNames, routes []string, echo io.Writer, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := CompileSchema(BuildResultJSONSchema(fieldNames, routes))
	if err != nil {
		return nil, err
	}
	return &Writer{dir: dir, echo: echo, schema: schema, logger: logger}, nil
}

// Write returns the path written, or "" when file output is disabled.
func (w *Writer) Write(res *entity.ClaimResult) (string, error) {
	b, err := Encode(res.Record())
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	if err := ValidateJSONAgainstSchema(w.schema, b); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if w.echo != nil {
		if _, err := w.echo.Write(b); err != nil {
			return "", fmt.Errorf("echo result: %w", err)
		}
	}
	if w.dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	out := filepath.Join(w.dir, filepath.Base(res.InputFile)+".json")
	if err := os.WriteFile(out, b, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	w.logger.Info("report.write.ok", "file", res.InputFile, "out", out, "route", res.RecommendedRoute)
	return out, nil
}

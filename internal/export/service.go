package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fnol-triage/internal/entity"
	"github.com/joseph-ayodele/fnol-triage/internal/repository"
)

// SheetName is the worksheet holding triage rows.
const SheetName = "Triage"

var fixedHeaders = []string{"Input File", "Route", "Reasoning", "Missing Fields"}

// Service produces XLSX workbooks from triage results.
type Service struct {
	results    repository.TriageResultRepository // optional; needed by ExportStoredXLSX
	fieldNames []string
	logger     *slog.Logger
}

// NewService exports one column per name in fieldNames after the fixed columns.
func NewService(results repository.TriageResultRepository, fieldNames []string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{results: results, fieldNames: fieldNames, logger: logger}
}

// ExportStoredXLSX exports stored results matching f.
func (s *Service) ExportStoredXLSX(ctx context.Context, f repository.ListFilter) ([]byte, error) {
	if s.results == nil {
		return nil, fmt.Errorf("export: no result repository configured")
	}
	recs, err := s.results.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	return s.ExportResultsXLSX(ctx, recs)
}

// ExportResultsXLSX returns an XLSX workbook (as bytes) with one row per result.
func (s *Service) ExportResultsXLSX(_ context.Context, results []*entity.ClaimResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	// rename the default sheet so the workbook has exactly one
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, err
	}

	headers := append(append([]string{}, fixedHeaders...), s.fieldNames...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	for i, r := range results {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		write(1, r.InputFile)
		write(2, r.RecommendedRoute)
		write(3, truncate(r.Reasoning, 240))
		write(4, strings.Join(r.MissingFields, ", "))
		for j, name := range s.fieldNames {
			write(len(fixedHeaders)+j+1, r.ExtractedFields.GetOrEmpty(name))
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 28) // file
	_ = f.SetColWidth(SheetName, "B", "B", 18) // route
	_ = f.SetColWidth(SheetName, "C", "D", 48)
	if len(s.fieldNames) > 0 {
		first, _ := excelize.ColumnNumberToName(len(fixedHeaders) + 1)
		last, _ := excelize.ColumnNumberToName(len(fixedHeaders) + len(s.fieldNames))
		_ = f.SetColWidth(SheetName, first, last, 22)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

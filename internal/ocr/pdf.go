package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/fnol-triage/constants"
)

// extractPDF reads the embedded text layer and falls back to rasterize+OCR
// when the document has no usable text.
func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	pages, warns, err := e.pdfToText(ctx, path)
	if err != nil {
		return ExtractionResult{SourceType: constants.PDF, Warnings: warns}, err
	}
	method := MethodPDFText
	if strings.TrimSpace(strings.Join(pages, "")) == "" {
		e.logger.Info("ocr.pdf.no_text_layer", "path", path)
		var w []string
		pages, w, err = e.pdfToOCR(ctx, path)
		warns = append(warns, w...)
		if err != nil {
			return ExtractionResult{SourceType: constants.PDF, Warnings: warns}, err
		}
		method = MethodPDFOCR
	}
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}
	return ExtractionResult{
		Text:       Normalize(JoinPages(pages)),
		Pages:      len(pages),
		SourceType: constants.PDF,
		Method:     method,
		Language:   e.cfg.TesseractLang,
		Warnings:   warns,
	}, nil
}

// JoinPages concatenates page texts, prefixing each non-blank page with a
// "--- Page N ---" marker line. N is the 1-based page position.
func JoinPages(pages []string) string {
	var b strings.Builder
	for i, p := range pages {
		if strings.TrimSpace(p) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n", i+1)
		b.WriteString(p)
	}
	return b.String()
}

func (e *Extractor) pdfToText(ctx context.Context, path string) ([]string, []string, error) {
	// pdftotext -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, []string{string(errb)}, fmt.Errorf("pdftotext: %w", err)
	}
	// A form-feed \f is used as page separator; the last page is terminated by one too.
	text := strings.TrimSuffix(string(out), "\f")
	return strings.Split(text, "\f"), nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) ([]string, []string, error) {
	tmpDir, err := os.MkdirTemp("", "fnol-pp-*")
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr.tmp.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", fmt.Sprintf("%d", e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", e.cfg.MaxPages))
	}
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, append(args, path, prefix)...)
	if err != nil {
		return nil, []string{string(errb)}, fmt.Errorf("pdftoppm: %w", err)
	}

	// collect generated pngs (page-1.png, page-2.png, ...); pdftoppm zero-pads
	// to a fixed width so a lexical sort is page order.
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, []string{"pdftoppm produced no images"}, fmt.Errorf("pdftoppm: no pages rendered")
	}

	pages := make([]string, 0, len(matches))
	var warns []string
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		warns = append(warns, w...)
		if err != nil {
			warns = append(warns, err.Error())
			pages = append(pages, "")
			continue
		}
		pages = append(pages, txt)
	}
	return pages, warns, nil
}

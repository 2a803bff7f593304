package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// PDFTools wraps the poppler command line utilities.
type PDFTools struct {
	Runner    Runner
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Logger    *slog.Logger
}

func (p PDFTools) withDefaults() PDFTools {
	if p.Runner == nil {
		p.Runner = NewExecRunner(p.Logger)
	}
	if p.Pdftotext == "" {
		p.Pdftotext = "pdftotext"
	}
	if p.Pdftoppm == "" {
		p.Pdftoppm = "pdftoppm"
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return p
}

// PDFText reads the embedded text layer in page order.
func (p PDFTools) PDFText(ctx context.Context, path string) (text string, pages int, err error) {
	p = p.withDefaults()
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := p.Runner.Run(ctx, p.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %s", stderrOr(errb, err))
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = strings.Count(text, "\f")
	if pages == 0 {
		pages = 1
	}
	return text, pages, nil
}

// Rasterize renders pages to PNG files inside dir and returns them in page
// order. maxPages <= 0 renders every page.
func (p PDFTools) Rasterize(ctx context.Context, pdfPath, dir string, dpi, maxPages int) ([]string, error) {
	p = p.withDefaults()
	if dpi <= 0 {
		dpi = 300
	}
	prefix := filepath.Join(dir, "page")
	// pdftoppm -r 300 -png [-f 1 -l N] <in.pdf> <dir/page>
	args := []string{"-r", strconv.Itoa(dpi), "-png"}
	if maxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(maxPages))
	}
	args = append(args, pdfPath, prefix)
	if _, errb, err := p.Runner.Run(ctx, p.Pdftoppm, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm: %s", stderrOr(errb, err))
	}

	// prefix-1.png, prefix-2.png, ... (zero padded to a common width)
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	if maxPages > 0 && len(matches) > maxPages {
		matches = matches[:maxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images")
	}
	p.Logger.Debug("ocr.rasterize.done", "path", pdfPath, "pages", len(matches), "dpi", dpi)
	return matches, nil
}

package acquire

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/ocr"
)

// Text methods reported in Result.Method.
const (
	MethodNone    = "none"
	MethodPDFText = "pdf-text"
	MethodPDFOCR  = "pdf-ocr"
	MethodDOCX    = "docx"
	MethodDOC     = "doc"
)

const pageSeparator = "\n\f\n"

// Config holds the acquisition knobs.
type Config struct {
	DPI      int    // rasterization DPI for scanned PDFs, default 300
	MaxPages int    // 0 = no limit
	Antiword string // if empty -> "antiword"
}

// Result is the outcome of one acquisition. Text is never empty: failures are
// encoded as inline markers (see constants.IsAcquisitionError).
type Result struct {
	Text     string
	Method   string
	Pages    int
	Warnings []string
	Cached   bool
	Hash     string
	Duration time.Duration
}

// TextCache lets duplicate uploads skip extraction.
type TextCache interface {
	Get(ctx context.Context, hash string) (text, method string, ok bool, err error)
	Put(ctx context.Context, hash, method, text string) error
}

// PageObserver is told the outcome of every OCR page attempt.
type PageObserver interface {
	ObserveOCRPage(engine, outcome string)
}

type Acquirer struct {
	cfg       Config
	pdf       ocr.PDFTools
	runner    ocr.Runner
	primary   ocr.Engine
	secondary ocr.Engine
	cache     TextCache
	observer  PageObserver
	pageCount func([]byte) (int, error)
	logger    *slog.Logger
}

type Option func(*Acquirer)

// WithSecondary enables the high-accuracy engine, tried first on every page.
func WithSecondary(e ocr.Engine) Option { return func(a *Acquirer) { a.secondary = e } }

func WithCache(c TextCache) Option { return func(a *Acquirer) { a.cache = c } }

func WithPageObserver(o PageObserver) Option { return func(a *Acquirer) { a.observer = o } }

func New(cfg Config, pdf ocr.PDFTools, primary ocr.Engine, logger *slog.Logger, opts ...Option) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.Antiword == "" {
		cfg.Antiword = "antiword"
	}
	if pdf.Logger == nil {
		pdf.Logger = logger
	}
	if pdf.Runner == nil {
		pdf.Runner = ocr.NewExecRunner(logger)
	}
	a := &Acquirer{
		cfg:       cfg,
		pdf:       pdf,
		runner:    pdf.Runner,
		primary:   primary,
		pageCount: pdfPageCount,
		logger:    logger,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Text is Acquire for callers that only need the string.
func (a *Acquirer) Text(ctx context.Context, doc Document) string {
	return a.Acquire(ctx, doc).Text
}

// Acquire extracts text from doc. It never fails: every failure mode is
// returned as a marker string in Result.Text.
func (a *Acquirer) Acquire(ctx context.Context, doc Document) (res Result) {
	start := time.Now()
	log := a.logger.With("file", doc.Name)
	defer func() {
		if r := recover(); r != nil {
			log.Error("acquire.panic", "panic", r)
			res = Result{Text: fmt.Sprintf("%s%v]", constants.PDFReadErrorPrefix, r), Method: MethodNone}
		}
		res.Duration = time.Since(start)
		log.Info("acquire.done",
			"method", res.Method,
			"pages", res.Pages,
			"chars", len(res.Text),
			"cached", res.Cached,
			"warnings", len(res.Warnings),
			"elapsed_ms", res.Duration.Milliseconds(),
		)
	}()

	if len(doc.Data) == 0 {
		return Result{Text: constants.EmptyUploadMarker, Method: MethodNone}
	}

	sum := sha256.Sum256(doc.Data)
	hash := hex.EncodeToString(sum[:])
	if a.cache != nil {
		text, method, ok, err := a.cache.Get(ctx, hash)
		if err != nil {
			log.Warn("acquire.cache.get_failed", "error", err)
		} else if ok {
			return Result{Text: text, Method: method, Cached: true, Hash: hash}
		}
	}

	switch detectFormat(doc) {
	case constants.PDF:
		res = a.acquirePDF(ctx, doc.Data, log)
	case constants.DOCX:
		text, err := docxText(doc.Data)
		res = a.finish(MethodDOCX, text, err, constants.DOCXErrorPrefix)
	case constants.DOC:
		text, err := a.docText(ctx, doc.Data)
		res = a.finish(MethodDOC, text, err, constants.DOCErrorPrefix)
	default:
		res = Result{Text: constants.UnsupportedPrefix + doc.Name + "]", Method: MethodNone}
	}
	res.Hash = hash

	if a.cache != nil && constants.HasReadableText(res.Text) {
		if err := a.cache.Put(ctx, hash, res.Method, res.Text); err != nil {
			log.Warn("acquire.cache.put_failed", "error", err)
		}
	}
	return res
}

func (a *Acquirer) finish(method, text string, err error, errPrefix string) Result {
	if err != nil {
		return Result{Text: errPrefix + err.Error() + "]", Method: method}
	}
	text = ocr.Normalize(text)
	if text == "" {
		return Result{Text: errPrefix + "No text found]", Method: method}
	}
	return Result{Text: text, Method: method, Pages: 1}
}

// detectFormat trusts the extension first and falls back to magic bytes.
func detectFormat(doc Document) constants.Format {
	if f := constants.MapExtToFormat(filepath.Ext(doc.Name)); f != constants.UNKNOWN {
		return f
	}
	switch {
	case strings.HasPrefix(string(doc.Data[:min(len(doc.Data), 5)]), "%PDF-"):
		return constants.PDF
	case strings.HasPrefix(string(doc.Data[:min(len(doc.Data), 4)]), "PK\x03\x04"):
		return constants.DOCX
	}
	return constants.UNKNOWN
}

func (a *Acquirer) acquirePDF(ctx context.Context, data []byte, log *slog.Logger) Result {
	path, cleanup, err := writeTemp(data, ".pdf")
	if err != nil {
		return Result{Text: constants.PDFReadErrorPrefix + err.Error() + "]", Method: MethodNone}
	}
	defer cleanup()

	text, pages, err := a.pdf.PDFText(ctx, path)
	if err != nil {
		log.Warn("acquire.pdf.read_failed", "error", err)
		return Result{Text: constants.PDFReadErrorPrefix + err.Error() + "]", Method: MethodPDFText}
	}
	if strings.TrimSpace(text) != "" {
		return Result{Text: ocr.Normalize(text), Method: MethodPDFText, Pages: pages}
	}

	log.Info("acquire.ocr.fallback", "reason", "empty text layer")
	return a.ocrPDF(ctx, path, data, log)
}

func (a *Acquirer) ocrPDF(ctx context.Context, path string, data []byte, log *slog.Logger) Result {
	res := Result{Method: MethodPDFOCR}

	if n, err := a.pageCount(data); err != nil {
		res.Warnings = append(res.Warnings, "page count: "+err.Error())
	} else {
		res.Pages = n
		if a.cfg.MaxPages > 0 && n > a.cfg.MaxPages {
			log.Warn("acquire.ocr.page_cap", "pages", n, "max_pages", a.cfg.MaxPages)
			res.Warnings = append(res.Warnings, fmt.Sprintf("only the first %d of %d pages were OCR'd", a.cfg.MaxPages, n))
		}
	}

	dir, err := os.MkdirTemp("", "docintel-ocr-*")
	if err != nil {
		res.Text = constants.OCRErrorPrefix + err.Error() + "]"
		return res
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn("acquire.ocr.cleanup_failed", "dir", dir, "error", err)
		}
	}()

	images, err := a.pdf.Rasterize(ctx, path, dir, a.cfg.DPI, a.cfg.MaxPages)
	if err != nil {
		log.Warn("acquire.ocr.rasterize_failed", "error", err)
		res.Text = constants.OCRErrorPrefix + err.Error() + "]"
		return res
	}
	if res.Pages == 0 {
		res.Pages = len(images)
	}

	var parts []string
	for i, img := range images {
		txt, warns := a.recognizePage(ctx, img)
		for _, w := range warns {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %s", i+1, w))
		}
		if txt == "" {
			log.Warn("acquire.ocr.page_failed", "page", i+1)
			continue
		}
		parts = append(parts, txt)
	}
	if len(parts) == 0 {
		res.Text = constants.OCRNoTextMarker
		return res
	}
	res.Text = ocr.Normalize(strings.Join(parts, pageSeparator))
	return res
}

// recognizePage tries the secondary engine first, then the primary on an
// error or empty result. Engine errors only become warnings.
func (a *Acquirer) recognizePage(ctx context.Context, img string) (string, []string) {
	var warns []string
	engines := []ocr.Engine{a.secondary, a.primary}
	for _, eng := range engines {
		if eng == nil {
			continue
		}
		txt, err := eng.Recognize(ctx, img)
		switch {
		case err != nil:
			warns = append(warns, fmt.Sprintf("%s: %v", eng.Name(), err))
			a.observe(eng.Name(), "error")
		case strings.TrimSpace(txt) == "":
			warns = append(warns, eng.Name()+": empty result")
			a.observe(eng.Name(), "empty")
		default:
			a.observe(eng.Name(), "ok")
			return strings.TrimSpace(txt), warns
		}
	}
	return "", warns
}

func (a *Acquirer) observe(engine, outcome string) {
	if a.observer != nil {
		a.observer.ObserveOCRPage(engine, outcome)
	}
}

package acquire

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/ocr"
)

// fakeTools stands in for poppler and antiword.
type fakeTools struct {
	nativeText string
	textErr    error
	pages      int

	mu       sync.Mutex
	paths    []string
	rastered int
}

func (f *fakeTools) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch name {
	case "pdftotext":
		f.paths = append(f.paths, args[len(args)-2])
		if f.textErr != nil {
			return nil, []byte("Syntax Error"), f.textErr
		}
		return []byte(f.nativeText), nil, nil
	case "pdftoppm":
		f.rastered++
		f.paths = append(f.paths, args[len(args)-2])
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "antiword":
		f.paths = append(f.paths, args[len(args)-1])
		return []byte("Rahmenvertrag\n"), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected command %s", name)
}

type scriptedEngine struct {
	name   string
	mu     sync.Mutex
	calls  int
	images []string
	reply  func(call int) (string, error)
}

func (s *scriptedEngine) Name() string { return s.name }

func (s *scriptedEngine) Recognize(_ context.Context, img string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.images = append(s.images, img)
	call := s.calls
	s.mu.Unlock()
	return s.reply(call)
}

func newTestAcquirer(tools *fakeTools, primary ocr.Engine, opts ...Option) *Acquirer {
	a := New(Config{}, ocr.PDFTools{Runner: tools}, primary, nil, opts...)
	a.pageCount = func([]byte) (int, error) { return tools.pages, nil }
	return a
}

var pdfDoc = Document{Name: "vertrag.pdf", Data: []byte("%PDF-1.7 fake")}

func TestAcquireEmptyUpload(t *testing.T) {
	a := newTestAcquirer(&fakeTools{}, nil)
	for _, doc := range []Document{{Name: "a.pdf"}, {Name: "a.pdf", Data: []byte{}}} {
		res := a.Acquire(context.Background(), doc)
		assert.Equal(t, constants.EmptyUploadMarker, res.Text)
		assert.False(t, constants.HasReadableText(res.Text))
	}
}

func TestAcquireNativeTextSkipsOCR(t *testing.T) {
	tools := &fakeTools{nativeText: "Vertrag zwischen A und B\f", pages: 3}
	eng := &scriptedEngine{name: "tesseract", reply: func(int) (string, error) { return "ocr", nil }}
	res := newTestAcquirer(tools, eng).Acquire(context.Background(), pdfDoc)

	assert.Equal(t, MethodPDFText, res.Method)
	assert.Equal(t, "Vertrag zwischen A und B", res.Text)
	assert.Zero(t, eng.calls)
	assert.Zero(t, tools.rastered)
}

func TestAcquireOCRFallbackOncePerPage(t *testing.T) {
	tools := &fakeTools{nativeText: "  \n\f \n", pages: 3}
	eng := &scriptedEngine{name: "tesseract", reply: func(call int) (string, error) {
		return fmt.Sprintf("Seite %d", call), nil
	}}
	res := newTestAcquirer(tools, eng).Acquire(context.Background(), pdfDoc)

	assert.Equal(t, MethodPDFOCR, res.Method)
	assert.Equal(t, 3, eng.calls)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, "Seite 1\n\f\nSeite 2\n\f\nSeite 3", res.Text)
	for _, img := range eng.images {
		_, err := os.Stat(img)
		assert.True(t, os.IsNotExist(err), "page image %s should be removed", img)
	}
}

func TestAcquirePageFailuresAreWarnings(t *testing.T) {
	tools := &fakeTools{pages: 3}
	eng := &scriptedEngine{name: "tesseract", reply: func(call int) (string, error) {
		if call == 2 {
			return "", errors.New("tesseract crashed")
		}
		return "ok", nil
	}}
	res := newTestAcquirer(tools, eng).Acquire(context.Background(), pdfDoc)

	assert.Equal(t, "ok\n\f\nok", res.Text)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "page 2")
}

func TestAcquireOCRNothingFound(t *testing.T) {
	tools := &fakeTools{pages: 2}
	eng := &scriptedEngine{name: "tesseract", reply: func(int) (string, error) { return " \n", nil }}
	res := newTestAcquirer(tools, eng).Acquire(context.Background(), pdfDoc)

	assert.Equal(t, constants.OCRNoTextMarker, res.Text)
	assert.True(t, constants.IsAcquisitionError(res.Text))
}

func TestAcquireSecondaryFirstThenPrimary(t *testing.T) {
	tools := &fakeTools{pages: 2}
	secondary := &scriptedEngine{name: "vision", reply: func(call int) (string, error) {
		if call == 1 {
			return "", errors.New("timeout")
		}
		return "vision text", nil
	}}
	primary := &scriptedEngine{name: "tesseract", reply: func(int) (string, error) { return "tesseract text", nil }}
	res := newTestAcquirer(tools, primary, WithSecondary(secondary)).Acquire(context.Background(), pdfDoc)

	assert.Equal(t, 2, secondary.calls)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, "tesseract text\n\f\nvision text", res.Text)
}

func TestAcquireCorruptPDF(t *testing.T) {
	tools := &fakeTools{textErr: errors.New("exit status 1")}
	res := newTestAcquirer(tools, nil).Acquire(context.Background(), pdfDoc)
	assert.True(t, strings.HasPrefix(res.Text, constants.PDFReadErrorPrefix))
}

func TestAcquireRemovesTempFiles(t *testing.T) {
	tools := &fakeTools{pages: 1}
	eng := &scriptedEngine{name: "tesseract", reply: func(int) (string, error) { return "", errors.New("boom") }}
	newTestAcquirer(tools, eng).Acquire(context.Background(), pdfDoc)

	require.NotEmpty(t, tools.paths)
	for _, p := range tools.paths {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "temp file %s should be removed", p)
	}
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestAcquireDOCX(t *testing.T) {
	xmlBody := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Kooperationsvertrag</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Laufzeit</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t xml:space="preserve">24 Monate</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p><w:r><w:t>Gerichtsstand</w:t><w:tab/><w:t>München</w:t></w:r></w:p>
</w:body></w:document>`
	doc := Document{Name: "lieferant.docx", Data: buildDOCX(t, xmlBody)}
	res := newTestAcquirer(&fakeTools{}, nil).Acquire(context.Background(), doc)

	assert.Equal(t, MethodDOCX, res.Method)
	assert.Contains(t, res.Text, "Kooperationsvertrag")
	assert.Contains(t, res.Text, "Laufzeit\t24 Monate")
	assert.Contains(t, res.Text, "Gerichtsstand\tMünchen")
}

func TestAcquireBrokenDOCX(t *testing.T) {
	res := newTestAcquirer(&fakeTools{}, nil).Acquire(context.Background(), Document{Name: "x.docx", Data: []byte("not a zip")})
	assert.True(t, strings.HasPrefix(res.Text, constants.DOCXErrorPrefix))
}

func TestAcquireDOC(t *testing.T) {
	tools := &fakeTools{}
	res := newTestAcquirer(tools, nil).Acquire(context.Background(), Document{Name: "alt.doc", Data: []byte{0xD0, 0xCF}})
	assert.Equal(t, MethodDOC, res.Method)
	assert.Equal(t, "Rahmenvertrag", res.Text)
}

func TestAcquireUnsupported(t *testing.T) {
	res := newTestAcquirer(&fakeTools{}, nil).Acquire(context.Background(), Document{Name: "bild.png", Data: []byte("\x89PNG")})
	assert.Equal(t, constants.UnsupportedPrefix+"bild.png]", res.Text)
}

type memCache struct {
	entries map[string][2]string
	puts    int
}

func (m *memCache) Get(_ context.Context, hash string) (string, string, bool, error) {
	e, ok := m.entries[hash]
	return e[1], e[0], ok, nil
}

func (m *memCache) Put(_ context.Context, hash, method, text string) error {
	m.puts++
	m.entries[hash] = [2]string{method, text}
	return nil
}

func TestAcquireCache(t *testing.T) {
	tools := &fakeTools{nativeText: "Rechnung 2024-001"}
	cache := &memCache{entries: map[string][2]string{}}
	a := newTestAcquirer(tools, nil, WithCache(cache))

	first := a.Acquire(context.Background(), pdfDoc)
	second := a.Acquire(context.Background(), pdfDoc)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, MethodPDFText, second.Method)
	assert.Equal(t, 1, cache.puts)
	assert.Len(t, tools.paths, 1)
}

func TestAdapt(t *testing.T) {
	for name, src := range map[string]any{
		"bytes":  []byte("abc"),
		"string": "abc",
		"reader": strings.NewReader("abc"),
		"buffer": bytes.NewBufferString("abc"),
	} {
		doc, err := Adapt("f.pdf", src)
		require.NoError(t, err, name)
		assert.Equal(t, []byte("abc"), doc.Data, name)
	}

	for name, src := range map[string]any{
		"nil":          nil,
		"nil buffer":   (*bytes.Buffer)(nil),
		"nil reader":   (*strings.Reader)(nil),
		"empty buffer": &bytes.Buffer{},
	} {
		doc, err := Adapt("f.pdf", src)
		require.NoError(t, err, name)
		assert.NotNil(t, doc.Data, name)
		assert.Empty(t, doc.Data, name)
	}

	doc, err := Adapt("f.pdf", (*bytes.Buffer)(nil))
	require.NoError(t, err)
	a := New(Config{}, ocr.PDFTools{}, nil, nil)
	assert.Equal(t, constants.EmptyUploadMarker, a.Text(context.Background(), doc))

	_, err = Adapt("f.pdf", 42)
	require.Error(t, err)
}

func TestLengthInfo(t *testing.T) {
	short := LengthInfo(strings.Repeat("a", 2999))
	assert.True(t, short.IsShort)
	assert.Equal(t, 2999, short.RecommendedTruncate)

	mid := LengthInfo(strings.Repeat("ä", 3200))
	assert.False(t, mid.IsShort)
	assert.Equal(t, 3200, mid.Chars)
	assert.Equal(t, 3200, mid.RecommendedTruncate)

	long := LengthInfo(strings.Repeat("a", 10000))
	assert.Equal(t, 3500, long.RecommendedTruncate)
}

package ocr

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.Table)).Parser()

// MarkdownToText flattens markdown (as returned by vision models) to plain
// text: markup is dropped, block elements end on a newline, list items get a
// "- " prefix and table cells are tab separated.
func MarkdownToText(src []byte) string {
	doc := markdownParser.Parse(text.NewReader(src))

	var b bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n.Kind() {
		case ast.KindText:
			if entering {
				t := n.(*ast.Text)
				b.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
		case ast.KindString:
			if entering {
				b.Write(n.(*ast.String).Value)
			}
		case ast.KindAutoLink:
			if entering {
				b.Write(n.(*ast.AutoLink).URL(src))
			}
			return ast.WalkSkipChildren, nil
		case ast.KindCodeBlock, ast.KindFencedCodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(src))
				}
				b.WriteByte('\n')
			}
			return ast.WalkSkipChildren, nil
		case ast.KindHTMLBlock, ast.KindRawHTML:
			return ast.WalkSkipChildren, nil
		case ast.KindListItem:
			if entering {
				b.WriteString("- ")
			}
		case ast.KindParagraph, ast.KindHeading, ast.KindTextBlock, ast.KindThematicBreak:
			if !entering {
				b.WriteByte('\n')
			}
		case east.KindTableCell:
			if !entering {
				b.WriteByte('\t')
			}
		case east.KindTableRow, east.KindTableHeader:
			if !entering {
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	out := strings.ReplaceAll(b.String(), "\t\n", "\n")
	return strings.TrimSpace(reManyBlank.ReplaceAllString(out, "\n\n"))
}

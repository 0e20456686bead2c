package domain

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// StripMarkup reduces body text carrying Markdown-style structural markup
// to plain text before chunking and scoring. Plain input passes through
// with only whitespace normalization.
func StripMarkup(src string) string {
	if !looksLikeMarkup(src) {
		return src
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader([]byte(src)))

	var buf bytes.Buffer
	writeNodeText(&buf, doc, []byte(src))
	return strings.TrimSpace(buf.String())
}

// looksLikeMarkup is a cheap screen so ordinary legal prose skips the
// parser entirely.
func looksLikeMarkup(s string) bool {
	return strings.ContainsAny(s, "#*`[") || strings.Contains(s, "](")
}

func writeNodeText(buf *bytes.Buffer, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			buf.Write(node.Value(src))
			if node.HardLineBreak() || node.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.CodeSpan, *ast.CodeBlock, *ast.FencedCodeBlock:
			if c.Type() == ast.TypeBlock {
				lines := c.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(src))
				}
			} else {
				writeNodeText(buf, c, src)
			}
		default:
			writeNodeText(buf, c, src)
		}
		if c.Type() == ast.TypeBlock {
			buf.WriteByte(' ')
		}
	}
}

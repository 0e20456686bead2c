// Package output renders CLI results: colored human-readable listings on
// terminals, plain text when piped, JSON on request.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/paragraf-search/paragraf/internal/domain"
)

// ANSI 256 palette, one accent color plus status colors.
const (
	colorAccent = "39"  // identifiers and ranks
	colorGray   = "245" // secondary text
	colorGreen  = "114"
	colorYellow = "220"
	colorRed    = "196"
)

type styles struct {
	rank       lipgloss.Style
	identifier lipgloss.Style
	title      lipgloss.Style
	meta       lipgloss.Style
	snippet    lipgloss.Style
	success    lipgloss.Style
	warning    lipgloss.Style
	errMsg     lipgloss.Style
}

func coloredStyles() styles {
	return styles{
		rank:       lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).Bold(true),
		identifier: lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)),
		title:      lipgloss.NewStyle().Bold(true),
		meta:       lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		snippet:    lipgloss.NewStyle(),
		success:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
		warning:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		errMsg:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
	}
}

func plainStyles() styles {
	var s styles
	return s
}

// Writer formats results and status lines for one output stream.
type Writer struct {
	out    io.Writer
	styles styles
}

// New creates a Writer. Color is enabled only when the stream is a
// terminal and NO_COLOR is unset.
func New(out io.Writer) *Writer {
	w := &Writer{out: out, styles: plainStyles()}
	if f, ok := out.(*os.File); ok {
		if _, noColor := os.LookupEnv("NO_COLOR"); !noColor &&
			(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			w.styles = coloredStyles()
		}
	}
	return w
}

func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format, args...)
}

func (w *Writer) Println(msg string) {
	_, _ = fmt.Fprintln(w.out, msg)
}

func (w *Writer) Successf(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, w.styles.success.Render(fmt.Sprintf(format, args...)))
}

func (w *Writer) Warningf(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, w.styles.warning.Render(fmt.Sprintf(format, args...)))
}

func (w *Writer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, w.styles.errMsg.Render(fmt.Sprintf(format, args...)))
}

// Results renders a ranked result list. Chunk-level hits show the chunk
// text, document-level hits show the snippet.
func (w *Writer) Results(results []domain.Result) {
	if len(results) == 0 {
		w.Println("No results.")
		return
	}
	for _, r := range results {
		doc := r.Document
		if doc == nil {
			doc = &domain.Document{}
		}
		head := fmt.Sprintf("%s %s",
			w.styles.rank.Render(fmt.Sprintf("%2d.", r.Rank)),
			w.styles.identifier.Render(doc.OfficialIdentifier))
		if doc.Title != "" {
			head += " " + w.styles.title.Render(doc.Title)
		}
		w.Println(head)

		meta := fmt.Sprintf("    score %.4f  %s  %s", r.Score, doc.DocType, doc.ID)
		if len(r.MatchedFields) > 0 {
			meta += "  matched: " + strings.Join(r.MatchedFields, ", ")
		}
		w.Println(w.styles.meta.Render(meta))

		text := r.Snippet
		if r.Chunk != nil {
			text = r.Chunk.Text
		}
		if text != "" {
			w.Println(w.styles.snippet.Render("    " + text))
		}
		w.Println("")
	}
}

// JSON writes any value as indented JSON, for scripting callers.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

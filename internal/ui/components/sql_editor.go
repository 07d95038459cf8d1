package components

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rebeliceyang/pglens/internal/ui/theme"
)

// SQLEditorView renders a SQL buffer with line numbers, syntax highlighting
// and a block cursor. Cursor is a byte offset into Text.
type SQLEditorView struct {
	Text    string
	Cursor  int
	Width   int
	Height  int
	Focused bool
	Theme   theme.Theme
}

var sqlLexer = func() chroma.Lexer {
	l := lexers.Get("postgresql")
	if l == nil {
		l = lexers.Get("sql")
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}()

// Highlight colors one line of SQL with the named chroma style. It returns
// the line unchanged when highlighting fails.
func Highlight(line, styleName string) string {
	if line == "" {
		return ""
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := sqlLexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return line
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// CursorPosition converts a byte offset into a (line, rune column) pair
func CursorPosition(text string, cursor int) (int, int) {
	cursor = min(max(cursor, 0), len(text))
	before := text[:cursor]
	line := strings.Count(before, "\n")
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		before = before[i+1:]
	}
	return line, utf8.RuneCountInString(before)
}

// View renders the editor
func (e *SQLEditorView) View() string {
	lines := strings.Split(e.Text, "\n")
	curLine, curCol := CursorPosition(e.Text, e.Cursor)

	numWidth := len(fmt.Sprintf("%d", max(len(lines), 10)))
	gutter := lipgloss.NewStyle().Foreground(e.Theme.Muted)
	contentWidth := max(e.Width-numWidth-3, 10)

	top, end := VisibleRange(curLine, len(lines), max(e.Height, 1))
	out := make([]string, 0, end-top)
	for i := top; i < end; i++ {
		var body string
		if i == curLine && e.Focused {
			body = e.renderCursorLine(lines[i], curCol, contentWidth)
		} else {
			line := lines[i]
			if runewidth.StringWidth(line) > contentWidth {
				line = runewidth.Truncate(line, contentWidth, "…")
			}
			body = Highlight(line, e.Theme.SyntaxStyle)
		}
		out = append(out, gutter.Render(fmt.Sprintf("%*d │ ", numWidth, i+1))+body)
	}

	if e.Text == "" && !e.Focused {
		out = append(out, gutter.Italic(true).Render("Type SQL here. Ctrl+E or F5 runs it."))
	}
	return strings.Join(out, "\n")
}

// renderCursorLine draws the line holding the cursor without highlighting
func (e *SQLEditorView) renderCursorLine(line string, col, width int) string {
	cursor := lipgloss.NewStyle().Reverse(true)
	plain := lipgloss.NewStyle().Foreground(e.Theme.Foreground)

	runes := []rune(line)
	start := 0
	if col >= width {
		start = col - width + 1
	}

	var b strings.Builder
	used := 0
	for i := start; i < len(runes); i++ {
		w := runewidth.RuneWidth(runes[i])
		if used+w > width {
			break
		}
		used += w
		if i == col {
			b.WriteString(cursor.Render(string(runes[i])))
		} else {
			b.WriteString(plain.Render(string(runes[i])))
		}
	}
	if col >= len(runes) {
		b.WriteString(cursor.Render(" "))
	}
	return b.String()
}

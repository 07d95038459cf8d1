// Package completion computes SQL suggestions for the editor from the text,
// the cursor offset and whatever schema metadata is known.
package completion

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxItems bounds the suggestion list
const MaxItems = 30

// Keywords is the fixed SQL vocabulary offered outside table contexts
var Keywords = []string{
	"SELECT", "FROM", "WHERE", "JOIN", "LEFT", "RIGHT", "INNER", "OUTER", "ON",
	"GROUP", "BY", "ORDER", "LIMIT", "OFFSET", "INSERT", "INTO", "VALUES",
	"UPDATE", "SET", "DELETE", "CREATE", "TABLE", "VIEW", "INDEX", "ALTER",
	"DROP", "AND", "OR", "NOT", "NULL", "TRUE", "FALSE", "DISTINCT", "AS",
	"UNION", "ALL", "CASE", "WHEN", "THEN", "ELSE", "END",
	// PostgreSQL
	"RETURNING", "ILIKE", "SIMILAR", "WITH", "RECURSIVE", "LATERAL", "UNNEST",
	"ANY", "ARRAY",
}

// tableContexts are the keywords after which only table names are offered
var tableContexts = map[string]bool{
	"FROM":   true,
	"JOIN":   true,
	"INTO":   true,
	"UPDATE": true,
}

// Result is a suggestion list and the span it replaces
type Result struct {
	Items []string
	// PrefixStart is the byte offset where the token under the cursor begins
	PrefixStart int
	Prefix      string
}

// Visible reports whether there is anything to show
func (r Result) Visible() bool {
	return len(r.Items) > 0
}

// Complete computes suggestions for the token ending at cursor. tables and
// columns may be incomplete; missing metadata only narrows the result.
func Complete(text string, cursor int, tables []string, columns map[string][]string) Result {
	cursor = clampCursor(text, cursor)
	start := tokenStart(text, cursor)
	prefix := text[start:cursor]
	res := Result{PrefixStart: start, Prefix: prefix}

	// table.<prefix> offers that table's columns and nothing else
	if qualifier, ok := dotQualifier(text, start); ok {
		if cols, found := lookupColumns(text, qualifier, columns); found {
			res.Items = finalize(matching(cols, prefix))
			return res
		}
	}

	if tableContexts[wordBefore(text, start)] {
		res.Items = finalize(matching(tables, prefix))
		return res
	}

	if prefix == "" {
		return res
	}

	candidates := matching(Keywords, prefix)
	candidates = append(candidates, matching(tables, prefix)...)
	res.Items = finalize(candidates)
	return res
}

// Accept replaces text[prefixStart:cursor] with item and returns the new
// text and cursor
func Accept(text string, cursor, prefixStart int, item string) (string, int) {
	cursor = clampCursor(text, cursor)
	if prefixStart < 0 || prefixStart > cursor {
		prefixStart = cursor
	}
	return text[:prefixStart] + item + text[cursor:], prefixStart + len(item)
}

// IsIdentRune reports whether r can be part of an identifier
func IsIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// clampCursor bounds cursor to the text and moves it back onto a rune boundary
func clampCursor(text string, cursor int) int {
	if cursor < 0 {
		return 0
	}
	if cursor > len(text) {
		return len(text)
	}
	for cursor > 0 && cursor < len(text) && !utf8.RuneStart(text[cursor]) {
		cursor--
	}
	return cursor
}

// tokenStart scans left from cursor over identifier runes
func tokenStart(text string, cursor int) int {
	i := cursor
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		if !IsIdentRune(r) {
			break
		}
		i -= size
	}
	return i
}

// dotQualifier returns the identifier before a '.' that immediately
// precedes the token at start
func dotQualifier(text string, start int) (string, bool) {
	if start == 0 || text[start-1] != '.' {
		return "", false
	}
	end := start - 1
	qstart := tokenStart(text, end)
	if qstart == end {
		return "", false
	}
	return text[qstart:end], true
}

// wordBefore returns the uppercased whitespace-delimited word before start
func wordBefore(text string, start int) string {
	fields := strings.Fields(text[:start])
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[len(fields)-1])
}

// lookupColumns finds the columns for a qualifier: an exact table name,
// then a case-insensitive one, then an alias declared in the text
func lookupColumns(text, qualifier string, columns map[string][]string) ([]string, bool) {
	if cols, ok := columns[qualifier]; ok {
		return cols, true
	}
	if cols, ok := lookupFold(columns, qualifier); ok {
		return cols, true
	}
	if table, ok := Aliases(text)[strings.ToLower(qualifier)]; ok {
		if cols, ok := columns[table]; ok {
			return cols, true
		}
		return lookupFold(columns, table)
	}
	return nil, false
}

func lookupFold(columns map[string][]string, name string) ([]string, bool) {
	for table, cols := range columns {
		if strings.EqualFold(table, name) {
			return cols, true
		}
	}
	return nil, false
}

// matching returns the candidates that start with prefix, ignoring case
func matching(candidates []string, prefix string) []string {
	var out []string
	lower := strings.ToLower(prefix)
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), lower) {
			out = append(out, c)
		}
	}
	return out
}

// finalize removes case-insensitive duplicates, sorts and truncates
func finalize(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	sort.Strings(out)
	if len(out) > MaxItems {
		out = out[:MaxItems]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

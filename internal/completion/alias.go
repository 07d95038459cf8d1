package completion

import (
	"strings"
	"unicode/utf8"
)

// notAlias lists words that can follow a table name without being an alias
var notAlias = map[string]bool{
	"WHERE": true, "ON": true, "JOIN": true, "LEFT": true, "RIGHT": true,
	"INNER": true, "OUTER": true, "FULL": true, "CROSS": true, "GROUP": true,
	"ORDER": true, "LIMIT": true, "OFFSET": true, "SET": true, "VALUES": true,
	"USING": true, "UNION": true, "RETURNING": true, "NATURAL": true,
	"HAVING": true, "WINDOW": true, "FOR": true, "SELECT": true, "DEFAULT": true,
}

// Aliases finds "<table> [AS] <alias>" declarations after FROM, JOIN,
// UPDATE and INTO. Keys are lowercased aliases; values are table names with
// any schema qualifier removed.
func Aliases(text string) map[string]string {
	tokens := tokenize(text)
	aliases := make(map[string]string)

	for i := 0; i+1 < len(tokens); i++ {
		if !tableContexts[strings.ToUpper(tokens[i])] {
			continue
		}
		table := tokens[i+1]
		if isReserved(table) {
			continue
		}
		if dot := strings.LastIndexByte(table, '.'); dot >= 0 {
			table = table[dot+1:]
		}

		j := i + 2
		if j < len(tokens) && strings.EqualFold(tokens[j], "AS") {
			j++
		}
		if j >= len(tokens) {
			continue
		}
		alias := tokens[j]
		if isReserved(alias) || strings.Contains(alias, ".") {
			continue
		}
		aliases[strings.ToLower(alias)] = table
	}

	return aliases
}

func isReserved(word string) bool {
	upper := strings.ToUpper(word)
	if notAlias[upper] {
		return true
	}
	for _, kw := range Keywords {
		if kw == upper {
			return true
		}
	}
	return false
}

// tokenize splits text into identifier tokens, keeping dotted names whole.
// Any other character separates tokens, so "users u," yields "users", "u".
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if tok := strings.Trim(current.String(), "."); tok != "" {
			tokens = append(tokens, tok)
		}
		current.Reset()
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if IsIdentRune(r) || r == '.' {
			current.WriteRune(r)
		} else {
			flush()
		}
		i += size
	}
	flush()

	return tokens
}

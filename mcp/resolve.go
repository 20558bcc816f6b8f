package mcp

import (
	"sort"
	"strings"

	"github.com/yoanbernabeu/golens/lsp"
)

// matchScore ranks how well a symbol name matches a query, higher is
// better. Zero means no match. Exact beats prefix beats substring beats
// in-order subsequence; a case-sensitive hit always outranks its
// case-insensitive counterpart.
func matchScore(query, name string) int {
	if query == "" || name == "" {
		return 0
	}
	lowerQuery := strings.ToLower(query)
	lowerName := strings.ToLower(name)

	switch {
	case name == query:
		return 100
	case lowerName == lowerQuery:
		return 90
	case strings.HasPrefix(name, query):
		return 80
	case strings.HasPrefix(lowerName, lowerQuery):
		return 70
	case strings.Contains(name, query):
		return 60
	case strings.Contains(lowerName, lowerQuery):
		return 50
	case isSubsequence(lowerQuery, lowerName):
		return 30
	default:
		return 0
	}
}

// isSubsequence reports whether every rune of query appears in name in
// order, not necessarily adjacent.
func isSubsequence(query, name string) bool {
	runes := []rune(query)
	i := 0
	for _, r := range name {
		if i < len(runes) && r == runes[i] {
			i++
		}
	}
	return i == len(runes)
}

// rankSymbols returns the best-matching symbols for a query, at most
// limit entries. Ties prefer shorter names, then listing order.
func rankSymbols(query string, symbols []lsp.SymbolInformation, limit int) []lsp.SymbolInformation {
	type ranked struct {
		sym   lsp.SymbolInformation
		score int
		order int
	}
	var matches []ranked
	for i, sym := range symbols {
		// Methods list as "(*T).Name" or "T.Name"; match against the
		// bare name too.
		score := matchScore(query, sym.Name)
		if idx := strings.LastIndexByte(sym.Name, '.'); idx >= 0 {
			if s := matchScore(query, sym.Name[idx+1:]); s > score {
				score = s
			}
		}
		if score > 0 {
			matches = append(matches, ranked{sym: sym, score: score, order: i})
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].score != matches[b].score {
			return matches[a].score > matches[b].score
		}
		if len(matches[a].sym.Name) != len(matches[b].sym.Name) {
			return len(matches[a].sym.Name) < len(matches[b].sym.Name)
		}
		return matches[a].order < matches[b].order
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]lsp.SymbolInformation, len(matches))
	for i, m := range matches {
		out[i] = m.sym
	}
	return out
}

// symbolKindNames maps LSP SymbolKind values to display names.
var symbolKindNames = map[int]string{
	1:  "file",
	2:  "module",
	3:  "namespace",
	4:  "package",
	5:  "class",
	6:  "method",
	7:  "property",
	8:  "field",
	9:  "constructor",
	10: "enum",
	11: "interface",
	12: "function",
	13: "variable",
	14: "constant",
	15: "string",
	16: "number",
	17: "boolean",
	18: "array",
	19: "object",
	20: "key",
	21: "null",
	22: "enum member",
	23: "struct",
	24: "event",
	25: "operator",
	26: "type parameter",
}

func symbolKindName(kind int) string {
	if name, ok := symbolKindNames[kind]; ok {
		return name
	}
	return "symbol"
}

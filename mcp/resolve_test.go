package mcp

import (
	"testing"

	"github.com/yoanbernabeu/golens/lsp"
)

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name  string
		query string
		sym   string
		want  int
	}{
		{"exact", "Registry", "Registry", 100},
		{"case-insensitive exact", "registry", "Registry", 90},
		{"prefix", "Reg", "Registry", 80},
		{"case-insensitive prefix", "reg", "Registry", 70},
		{"substring", "gist", "Registry", 60},
		{"case-insensitive substring", "GIST", "Registry", 50},
		{"subsequence", "rgy", "Registry", 30},
		{"no match", "xyz", "Registry", 0},
		{"empty query", "", "Registry", 0},
		{"empty name", "x", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchScore(tt.query, tt.sym); got != tt.want {
				t.Errorf("matchScore(%q, %q) = %d, want %d", tt.query, tt.sym, got, tt.want)
			}
		})
	}
}

func TestIsSubsequence(t *testing.T) {
	if !isSubsequence("abc", "xaxbxc") {
		t.Error("expected subsequence match")
	}
	if isSubsequence("cba", "abc") {
		t.Error("order must be preserved")
	}
}

func TestRankSymbols(t *testing.T) {
	symbols := []lsp.SymbolInformation{
		{Name: "RegistryEntry"},
		{Name: "Registry"},
		{Name: "registryKey"},
		{Name: "Unrelated"},
	}

	t.Run("exact match first", func(t *testing.T) {
		got := rankSymbols("Registry", symbols, 10)
		if len(got) != 3 {
			t.Fatalf("expected 3 matches, got %d", len(got))
		}
		if got[0].Name != "Registry" {
			t.Errorf("expected exact match first, got %q", got[0].Name)
		}
	})

	t.Run("limit respected", func(t *testing.T) {
		got := rankSymbols("Registry", symbols, 1)
		if len(got) != 1 || got[0].Name != "Registry" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		if got := rankSymbols("zzz", symbols, 10); len(got) != 0 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("method bare name matches", func(t *testing.T) {
		methods := []lsp.SymbolInformation{
			{Name: "(*Server).Shutdown"},
			{Name: "ShutdownHelper"},
		}
		got := rankSymbols("Shutdown", methods, 10)
		if len(got) != 2 {
			t.Fatalf("expected both to match, got %d", len(got))
		}
		// The method matches "Shutdown" exactly on its bare name and
		// must outrank the prefix match.
		if got[0].Name != "(*Server).Shutdown" {
			t.Errorf("expected method first, got %q", got[0].Name)
		}
	})
}

func TestSymbolKindName(t *testing.T) {
	if symbolKindName(12) != "function" {
		t.Errorf("got %q", symbolKindName(12))
	}
	if symbolKindName(23) != "struct" {
		t.Errorf("got %q", symbolKindName(23))
	}
	if symbolKindName(999) != "symbol" {
		t.Errorf("unknown kind should degrade, got %q", symbolKindName(999))
	}
}

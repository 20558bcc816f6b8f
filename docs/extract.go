package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// Source files above this size are skipped; generated code dominates there
// and its docs are rarely useful.
const maxSourceFileSize = 512 * 1024

// Extractor pulls exported top-level declarations and their doc comments
// out of Go sources using tree-sitter.
type Extractor struct {
	parser *sitter.Parser
}

// NewExtractor returns an Extractor with the Go grammar loaded.
func NewExtractor() (*Extractor, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	return &Extractor{parser: parser}, nil
}

// ExtractDir walks a module directory and merges symbol docs from every
// non-test Go file. Later files do not overwrite earlier entries, so the
// first (usually shortest-path) definition wins.
func (e *Extractor) ExtractDir(ctx context.Context, dir string) (map[string]string, error) {
	symbols := make(map[string]string)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip inaccessible paths
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if base == "testdata" || base == "internal" || strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") || info.Size() > maxSourceFileSize {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		fileSymbols, err := e.ExtractFile(ctx, content)
		if err != nil {
			return nil
		}
		for name, doc := range fileSymbols {
			if _, exists := symbols[name]; !exists {
				symbols[name] = doc
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return symbols, nil
}

// ExtractFile parses one file and returns exported symbol name -> doc text
// (leading comment plus declaration signature).
func (e *Extractor) ExtractFile(ctx context.Context, content []byte) (map[string]string, error) {
	tree, err := e.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	defer tree.Close()

	symbols := make(map[string]string)
	root := tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		node := root.Child(i)
		switch node.Type() {
		case "function_declaration", "method_declaration":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := nameNode.Content(content)
			if !isExported(name) {
				continue
			}
			if node.Type() == "method_declaration" {
				if recv := receiverType(node, content); recv != "" {
					name = recv + "." + name
				}
			}
			symbols[name] = formatDoc(leadingComment(root, i, content), signature(node, content))

		case "type_declaration":
			doc := leadingComment(root, i, content)
			for j := 0; j < int(node.NamedChildCount()); j++ {
				spec := node.NamedChild(j)
				if spec.Type() != "type_spec" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				name := nameNode.Content(content)
				if !isExported(name) {
					continue
				}
				symbols[name] = formatDoc(doc, "type "+signature(spec, content))
			}
		}
	}
	return symbols, nil
}

// leadingComment collects the run of comment siblings immediately above the
// declaration at child index i.
func leadingComment(root *sitter.Node, i int, content []byte) string {
	decl := root.Child(i)
	var lines []string
	expectedLine := decl.StartPoint().Row
	for j := i - 1; j >= 0; j-- {
		prev := root.Child(j)
		if prev.Type() != "comment" || prev.EndPoint().Row+1 != expectedLine {
			break
		}
		text := strings.TrimSpace(strings.TrimPrefix(prev.Content(content), "//"))
		lines = append([]string{text}, lines...)
		expectedLine = prev.StartPoint().Row
	}
	return strings.Join(lines, " ")
}

// signature returns the declaration's first line, trimmed at the body.
func signature(node *sitter.Node, content []byte) string {
	text := node.Content(content)
	if idx := strings.IndexAny(text, "{\n"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// receiverType extracts the bare receiver type name of a method.
func receiverType(node *sitter.Node, content []byte) string {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	text := recv.Content(content)
	text = strings.Trim(text, "()")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	typ := fields[len(fields)-1]
	typ = strings.TrimPrefix(typ, "*")
	// Drop generic type parameters.
	if idx := strings.IndexByte(typ, '['); idx >= 0 {
		typ = typ[:idx]
	}
	return typ
}

func formatDoc(comment, sig string) string {
	if comment == "" {
		return "```go\n" + sig + "\n```"
	}
	return comment + "\n\n```go\n" + sig + "\n```"
}

func isExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

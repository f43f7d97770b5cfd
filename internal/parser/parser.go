package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"depdetective/internal/errors"
)

// Parser turns Python source text into ImportRecords via a structural
// tree-sitter parse. One Parser serves all files; parses may run
// concurrently.
type Parser struct {
	pool      *parserPool
	extractor *pythonExtractor
}

func New() *Parser {
	lang := sitter.NewLanguage(tree_sitter_python.Language())
	return &Parser{
		pool:      newParserPool(lang),
		extractor: &pythonExtractor{},
	}
}

// ExtractFile parses one file's content and returns its import records
// in source order. A file that fails to parse returns a *ParseError so
// the caller can collect it and continue with the rest of the scan.
func (p *Parser) ExtractFile(path string, content []byte) ([]ImportRecord, error) {
	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("parse returned no tree for %s", path))
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, msg := firstSyntaxError(root)
		return nil, &ParseError{File: path, Line: line, Message: msg}
	}

	return p.extractor.Extract(root, content, path), nil
}

func firstSyntaxError(node *sitter.Node) (int, string) {
	if node.IsError() {
		return int(node.StartPosition().Row) + 1, "syntax error"
	}
	if node.IsMissing() {
		return int(node.StartPosition().Row) + 1, fmt.Sprintf("missing %s", node.Kind())
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.HasError() {
			return firstSyntaxError(child)
		}
	}
	return int(node.StartPosition().Row) + 1, "syntax error"
}

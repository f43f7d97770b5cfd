package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type pythonExtractor struct{}

func (e *pythonExtractor) Extract(root *sitter.Node, source []byte, filePath string) []ImportRecord {
	var records []ImportRecord
	e.walk(root, source, filePath, false, &records)
	return records
}

// walk visits every node, tracking whether the current subtree sits
// inside a try/except or if-guarded block. Imports found there are still
// real dependencies; they are only flagged as conditional.
func (e *pythonExtractor) walk(node *sitter.Node, source []byte, filePath string, conditional bool, records *[]ImportRecord) {
	switch node.Kind() {
	case "import_statement":
		e.extractImport(node, source, filePath, conditional, records)
		return
	case "import_from_statement":
		e.extractFromImport(node, source, filePath, conditional, records)
		return
	case "try_statement", "if_statement":
		conditional = true
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.walk(node.Child(i), source, filePath, conditional, records)
	}
}

func (e *pythonExtractor) extractImport(node *sitter.Node, source []byte, filePath string, conditional bool, records *[]ImportRecord) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "dotted_name", "identifier":
			module := e.getText(child, source)
			*records = append(*records, ImportRecord{
				ModuleRoot:    moduleRoot(module),
				Module:        module,
				SourceFile:    filePath,
				Line:          line(child),
				IsConditional: conditional,
			})
		case "aliased_import":
			module := e.fieldText(child, "name", source)
			alias := e.fieldText(child, "alias", source)
			*records = append(*records, ImportRecord{
				ModuleRoot:    moduleRoot(module),
				Module:        module,
				Alias:         alias,
				SourceFile:    filePath,
				Line:          line(child),
				IsConditional: conditional,
			})
		}
	}
}

func (e *pythonExtractor) extractFromImport(node *sitter.Node, source []byte, filePath string, conditional bool, records *[]ImportRecord) {
	var module string
	var names []string
	var alias string
	isRelative := false
	seenImportKeyword := false

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "import":
			seenImportKeyword = true
		case "relative_import":
			isRelative = true
			// "..pkg.mod" -> "pkg.mod"; bare dots leave module empty.
			module = strings.TrimLeft(e.getText(child, source), ".")
		case "dotted_name", "identifier":
			if !seenImportKeyword {
				module = e.getText(child, source)
			} else {
				names = append(names, e.getText(child, source))
			}
		case "aliased_import":
			names = append(names, e.fieldText(child, "name", source))
			alias = e.fieldText(child, "alias", source)
		case "wildcard_import":
			names = append(names, "*")
		}
	}

	root := moduleRoot(module)
	if isRelative && root == "" && len(names) > 0 && names[0] != "*" {
		// "from . import b": the imported names are sibling modules.
		root = names[0]
		module = names[0]
	}

	*records = append(*records, ImportRecord{
		ModuleRoot:    root,
		Module:        module,
		Names:         names,
		Alias:         alias,
		SourceFile:    filePath,
		Line:          line(node),
		IsConditional: conditional,
		IsRelative:    isRelative,
	})
}

func (e *pythonExtractor) fieldText(node *sitter.Node, field string, source []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return e.getText(child, source)
}

func (e *pythonExtractor) getText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

func moduleRoot(module string) string {
	root, _, _ := strings.Cut(module, ".")
	return root
}

func line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

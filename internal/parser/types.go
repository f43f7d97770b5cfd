package parser

// ImportRecord is one import statement found in a source file. Records
// are immutable once produced by extraction.
type ImportRecord struct {
	ModuleRoot    string   // First dotted segment of the imported path
	Module        string   // Full dotted path as written
	Names         []string // For "from X import A, B", in source order
	Alias         string   // Optional "as" alias
	SourceFile    string
	Line          int
	IsConditional bool // Inside a try/except or guarded block
	IsRelative    bool // "from . import x" style
}

// ParseError is a file that could not be structurally parsed. It is
// collected and reported; it never aborts the rest of the scan.
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e ParseError) Error() string {
	return e.File + ": " + e.Message
}

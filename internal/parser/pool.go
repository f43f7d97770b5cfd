package parser

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// parserPool recycles tree-sitter parser instances to avoid the per-file
// allocation overhead of sitter.NewParser() / parser.Close(). The pool is
// tied to a single grammar.
//
// Concurrency: safe for use by multiple goroutines simultaneously.
type parserPool struct {
	lang *sitter.Language
	pool sync.Pool
}

func newParserPool(lang *sitter.Language) *parserPool {
	p := &parserPool{lang: lang}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(lang)
			return sp
		},
	}
	return p
}

func (p *parserPool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// Ensure the language is set in case the parser was Reset() externally.
	sp.SetLanguage(p.lang)
	return sp
}

// Put returns a parser to the pool for reuse. The parser is reset so no
// references to previous parse trees are retained. Callers must not use
// sp after calling Put.
func (p *parserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	sp.Reset()
	p.pool.Put(sp)
}

// Package parser implements the single-pass recursive-descent grammar
// of §4.5 over the lexer's token stream, in either Build mode (produces
// an ast.Document) or Walk mode (drives a visitor callback).
package parser

import (
	"github.com/aledsdavies/confetti/pkgs/ast"
	"github.com/aledsdavies/confetti/pkgs/lexer"
)

// parser holds the state shared by both modes: the lexer it drives, the
// current and maximum nesting depth, and the sink its directive-
// completion points report to.
type parser struct {
	lx       *lexer.Lexer
	maxDepth int
	depth    int
	sink     sink

	aborted     bool
	abortOffset int
}

// Parse runs a Build-mode parse: source is tokenized and walked once,
// materializing an ast.Document. A nil Document is returned alongside
// every non-nil error; no partial tree is surfaced.
func Parse(source []byte, opts Options) (*ast.Document, *lexer.Error) {
	ix, err := opts.buildPunctIndex()
	if err != nil {
		return nil, err
	}

	ts := newTreeSink()
	lx := lexer.New(source, opts.lexerConfig(ix))
	p := &parser{lx: lx, maxDepth: effectiveMaxDepth(opts), sink: ts}
	lx.OnComment = func(offset, length int) {
		if ts.onComment(ast.Comment{SourceOffset: offset, SourceLength: length}) {
			p.aborted, p.abortOffset = true, offset
		}
	}

	if err := p.parseBody(true); err != nil {
		return nil, err
	}
	return ts.doc, nil
}

// Walk runs a Walk-mode parse: no tree is retained, events are
// delivered to cb in source order, and a nonzero return from cb aborts
// the walk with USER_ABORTED.
func Walk(source []byte, opts Options, cb Callback) *lexer.Error {
	if cb == nil {
		return lexer.NewError(lexer.InvalidOperation, 0, "walk callback must not be nil")
	}

	ix, err := opts.buildPunctIndex()
	if err != nil {
		return err
	}

	cs := &callbackSink{cb: cb}
	lx := lexer.New(source, opts.lexerConfig(ix))
	p := &parser{lx: lx, maxDepth: effectiveMaxDepth(opts), sink: cs}
	lx.OnComment = func(offset, length int) {
		if cs.onComment(ast.Comment{SourceOffset: offset, SourceLength: length}) {
			p.aborted, p.abortOffset = true, offset
		}
	}

	return p.parseBody(true)
}

func effectiveMaxDepth(opts Options) int {
	if opts.MaxDepth <= 0 {
		return DefaultOptions().MaxDepth
	}
	return opts.MaxDepth
}

// peek wraps the lexer's look-ahead, turning a comment-callback abort
// detected mid-scan into a USER_ABORTED error at the point it occurred.
func (p *parser) peek() (lexer.Token, *lexer.Error) {
	tok, err := p.lx.Peek()
	if err != nil {
		return tok, err
	}
	if p.aborted {
		return tok, lexer.NewError(lexer.UserAborted, p.abortOffset, "walk callback aborted")
	}
	return tok, nil
}

// body := (NEWLINE | directive)*
//
// topLevel distinguishes the two ways a body can end: at END for the
// document itself, at '}' for a subdirective block. A '}' seen at top
// level, or END seen inside a block, is BAD_SYNTAX.
func (p *parser) parseBody(topLevel bool) *lexer.Error {
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case lexer.End:
			if topLevel {
				return nil
			}
			return lexer.NewError(lexer.BadSyntax, tok.Offset, "unterminated block, expected '}'")
		case lexer.Newline:
			p.lx.Advance()
		case lexer.RBrace:
			if topLevel {
				return lexer.NewError(lexer.BadSyntax, tok.Offset, "found '}' without matching '{'")
			}
			return nil
		case lexer.Argument:
			if err := p.parseDirective(); err != nil {
				return err
			}
		case lexer.LineContinuation:
			return lexer.NewError(lexer.BadSyntax, tok.Offset, "unexpected line continuation")
		default:
			return lexer.NewError(lexer.BadSyntax, tok.Offset, "unexpected %s", tok.Kind)
		}
	}
}

// directive := ARGUMENT arg_tail rest
// arg_tail   := (ARGUMENT | LINE-CONTINUATION)*
//
// The argument run is scanned twice per §4.5's materialization
// strategy: once to size a single shared buffer, then again — after
// rewinding the lexer — to copy decoded values into it. LINE-
// CONTINUATION tokens are transparent on both passes.
func (p *parser) parseDirective() *lexer.Error {
	mark := p.lx.Save()

	argCount, totalLen := 0, 0
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case lexer.Argument:
			argCount++
			totalLen += p.lx.ValueLen(tok)
			p.lx.Advance()
		case lexer.LineContinuation:
			p.lx.Advance()
		default:
			goto sized
		}
	}
sized:
	p.lx.Restore(mark)

	buf := make([]byte, 0, totalLen)
	args := make([]ast.Argument, 0, argCount)
	ends := make([]int, 0, argCount)
	firstOffset := 0

	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case lexer.Argument:
			if len(args) == 0 {
				firstOffset = tok.Offset
			}
			buf = p.lx.AppendValue(buf, tok)
			ends = append(ends, len(buf))
			args = append(args, ast.Argument{
				SourceOffset: tok.Offset,
				SourceLength: tok.Length,
				IsExpression: tok.Flag == lexer.Expression,
			})
			p.lx.Advance()
		case lexer.LineContinuation:
			p.lx.Advance()
		default:
			goto filled
		}
	}
filled:
	// One conversion of the shared buffer; every Value is a slice of it.
	all := string(buf)
	for i, start := 0, 0; i < len(args); i++ {
		args[i].Value = all[start:ends[i]]
		start = ends[i]
	}

	if p.sink.onDirective(args) {
		return lexer.NewError(lexer.UserAborted, firstOffset, "walk callback aborted")
	}

	return p.parseRest()
}

// rest := ';' | NEWLINE* '{' body '}' (';')? | ε
func (p *parser) parseRest() *lexer.Error {
	tok, err := p.peek()
	if err != nil {
		return err
	}

	switch tok.Kind {
	case lexer.Semicolon:
		p.lx.Advance()
		return nil

	case lexer.LBrace:
		return p.parseBlock(tok)

	case lexer.Newline:
		for tok.Kind == lexer.Newline {
			p.lx.Advance()
			tok, err = p.peek()
			if err != nil {
				return err
			}
		}
		if tok.Kind == lexer.LBrace {
			return p.parseBlock(tok)
		}
		return nil

	default:
		return nil
	}
}

// parseBlock consumes an already-peeked '{', recurses into its body one
// depth deeper, consumes the matching '}', and tolerates one redundant
// trailing ';' per the SUPPLEMENTED BEHAVIOR adopted from §9's open
// question (b).
func (p *parser) parseBlock(lbrace lexer.Token) *lexer.Error {
	p.lx.Advance() // consume '{'

	newDepth := p.depth + 1
	if newDepth >= p.maxDepth {
		return lexer.NewError(lexer.MaxDepthExceeded, lbrace.Offset, "max nesting depth %d exceeded", p.maxDepth)
	}
	p.depth = newDepth

	if p.sink.onEnter() {
		return lexer.NewError(lexer.UserAborted, lbrace.Offset, "walk callback aborted")
	}

	if err := p.parseBody(false); err != nil {
		return err
	}

	tok, err := p.peek()
	if err != nil {
		return err
	}
	if tok.Kind != lexer.RBrace {
		return lexer.NewError(lexer.BadSyntax, tok.Offset, "expected '}'")
	}
	rbraceOffset := tok.Offset
	p.lx.Advance()
	p.depth--

	if p.sink.onLeave() {
		return lexer.NewError(lexer.UserAborted, rbraceOffset, "walk callback aborted")
	}

	tok, err = p.peek()
	if err != nil {
		return err
	}
	if tok.Kind == lexer.Semicolon {
		p.lx.Advance()
	}
	return nil
}

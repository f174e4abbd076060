package parser

import "github.com/aledsdavies/confetti/pkgs/ast"

// sink is the small polymorphic abstraction §9 describes: the only
// difference between Build and Walk is what a directive-completion
// point does. Every method's bool return is "abort" — the Walk
// callback returned nonzero; Build mode's implementation never aborts
// on its own.
type sink interface {
	onDirective(args []ast.Argument) (abort bool)
	onEnter() (abort bool)
	onLeave() (abort bool)
	onComment(c ast.Comment) (abort bool)
}

// treeSink is the Build-mode sink: it links each parsed directive into
// its parent and accumulates the document's comment list. pending
// holds the most recently completed directive between onDirective and
// a following onEnter, since the grammar only learns whether a
// directive opens a block after the directive itself is materialized.
type treeSink struct {
	doc     *ast.Document
	stack   []*ast.Directive
	pending *ast.Directive
}

func newTreeSink() *treeSink {
	root := &ast.Directive{}
	return &treeSink{doc: &ast.Document{Root: root}, stack: []*ast.Directive{root}}
}

func (s *treeSink) onDirective(args []ast.Argument) bool {
	d := &ast.Directive{Arguments: args}
	parent := s.stack[len(s.stack)-1]
	parent.Subdirectives = append(parent.Subdirectives, d)
	s.pending = d
	return false
}

func (s *treeSink) onEnter() bool {
	s.stack = append(s.stack, s.pending)
	s.pending = nil
	return false
}

func (s *treeSink) onLeave() bool {
	s.stack = s.stack[:len(s.stack)-1]
	return false
}

func (s *treeSink) onComment(c ast.Comment) bool {
	s.doc.Comments = append(s.doc.Comments, c)
	return false
}

// EventKind identifies which of the four Walk-mode events fired.
type EventKind uint8

const (
	DirectiveEvent EventKind = iota
	BlockEnter
	BlockLeave
	CommentEvent
)

func (k EventKind) String() string {
	switch k {
	case DirectiveEvent:
		return "DIRECTIVE"
	case BlockEnter:
		return "BLOCK_ENTER"
	case BlockLeave:
		return "BLOCK_LEAVE"
	case CommentEvent:
		return "COMMENT"
	default:
		return "UNKNOWN"
	}
}

// Callback is the Walk-mode visitor. args is nil for every event except
// DirectiveEvent; comment is nil for every event except CommentEvent.
// A nonzero return aborts the walk with USER_ABORTED at the offset of
// the event that triggered it.
type Callback func(kind EventKind, args []ast.Argument, comment *ast.Comment) int

// callbackSink is the Walk-mode sink: stateless beyond the callback
// itself, per §4.6. Build-mode's per-directive argument slice is still
// allocated by the parser to hand to the callback, but nothing here
// retains it past the call.
type callbackSink struct {
	cb Callback
}

func (s *callbackSink) onDirective(args []ast.Argument) bool {
	return s.cb(DirectiveEvent, args, nil) != 0
}

func (s *callbackSink) onEnter() bool {
	return s.cb(BlockEnter, nil, nil) != 0
}

func (s *callbackSink) onLeave() bool {
	return s.cb(BlockLeave, nil, nil) != 0
}

func (s *callbackSink) onComment(c ast.Comment) bool {
	cc := c
	return s.cb(CommentEvent, nil, &cc) != 0
}

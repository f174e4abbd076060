// Package ast is the Build-mode Document/Event Sink of §4.6: an
// arena-free tree of directives, each owning a contiguous argument
// buffer, plus the document's comment list.
package ast

// Argument is a single positional value inside a Directive. Value is
// already decoded and escape-processed per §4.4.4 — callers never see
// raw lexemes, only the materialized string and, for diagnostics, the
// span it came from.
type Argument struct {
	SourceOffset int
	SourceLength int
	Value        string
	IsExpression bool
}

// Comment is a recorded comment span. The delimiter (#, //, or /* */)
// is recoverable by slicing the source at [SourceOffset,
// SourceOffset+SourceLength) rather than stored redundantly here.
type Comment struct {
	SourceOffset int
	SourceLength int
}

// Directive is one semicolon- or newline-terminated line: an ordered
// argument vector and an ordered list of nested directives. A
// directive has no name distinct from its first argument.
type Directive struct {
	Arguments     []Argument
	Subdirectives []*Directive
}

// DirectiveCount returns the number of immediate subdirectives. Safe to
// call on a nil Directive.
func (d *Directive) DirectiveCount() int {
	if d == nil {
		return 0
	}
	return len(d.Subdirectives)
}

// DirectiveAt returns the i-th immediate subdirective, or nil if i is
// out of bounds. Safe to call on a nil Directive.
func (d *Directive) DirectiveAt(i int) *Directive {
	if d == nil || i < 0 || i >= len(d.Subdirectives) {
		return nil
	}
	return d.Subdirectives[i]
}

// ArgumentCount returns the number of arguments. Safe to call on a nil
// Directive.
func (d *Directive) ArgumentCount() int {
	if d == nil {
		return 0
	}
	return len(d.Arguments)
}

// ArgumentAt returns the i-th argument's decoded value. Returns the
// empty string if i is out of bounds or d is nil.
func (d *Directive) ArgumentAt(i int) string {
	if d == nil || i < 0 || i >= len(d.Arguments) {
		return ""
	}
	return d.Arguments[i].Value
}

// Document is the root of a successful Build-mode parse: a synthetic,
// argument-less container directive plus every comment encountered, in
// source order.
type Document struct {
	Root     *Directive
	Comments []Comment
}

// DirectiveCount returns the number of top-level directives. Safe to
// call on a nil Document.
func (doc *Document) DirectiveCount() int {
	if doc == nil {
		return 0
	}
	return doc.Root.DirectiveCount()
}

// DirectiveAt returns the i-th top-level directive, or nil if i is out
// of bounds. Safe to call on a nil Document.
func (doc *Document) DirectiveAt(i int) *Directive {
	if doc == nil {
		return nil
	}
	return doc.Root.DirectiveAt(i)
}

// CommentCount returns the number of recorded comments. Safe to call on
// a nil Document.
func (doc *Document) CommentCount() int {
	if doc == nil {
		return 0
	}
	return len(doc.Comments)
}

// CommentAt returns the i-th comment, or the zero Comment if i is out
// of bounds. Safe to call on a nil Document.
func (doc *Document) CommentAt(i int) Comment {
	if doc == nil || i < 0 || i >= len(doc.Comments) {
		return Comment{}
	}
	return doc.Comments[i]
}

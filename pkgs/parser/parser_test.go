package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/confetti/pkgs/ast"
	"github.com/aledsdavies/confetti/pkgs/lexer"
)

func argValues(d *ast.Directive) []string {
	vals := make([]string, len(d.Arguments))
	for i, a := range d.Arguments {
		vals[i] = a.Value
	}
	return vals
}

func TestParseSimpleDirective(t *testing.T) {
	doc, err := Parse([]byte("foo bar baz"), DefaultOptions())
	require.Nil(t, err)
	require.Equal(t, 1, doc.DirectiveCount())
	d := doc.DirectiveAt(0)
	if diff := cmp.Diff([]string{"foo", "bar", "baz"}, argValues(d)); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSemicolonAndNewlineSeparated(t *testing.T) {
	doc, err := Parse([]byte("one; two\nthree"), DefaultOptions())
	require.Nil(t, err)
	require.Equal(t, 3, doc.DirectiveCount())
	for i, want := range []string{"one", "two", "three"} {
		d := doc.DirectiveAt(i)
		require.Equal(t, 1, d.ArgumentCount())
		require.Equal(t, want, d.ArgumentAt(0))
	}
}

func TestParseNestedBlock(t *testing.T) {
	doc, err := Parse([]byte("outer {\n  inner 1 2\n}"), DefaultOptions())
	require.Nil(t, err)
	require.Equal(t, 1, doc.DirectiveCount())
	outer := doc.DirectiveAt(0)
	require.Equal(t, []string{"outer"}, argValues(outer))
	require.Equal(t, 1, outer.DirectiveCount())
	inner := outer.DirectiveAt(0)
	if diff := cmp.Diff([]string{"inner", "1", "2"}, argValues(inner)); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLineContinuationInvisibleInValues(t *testing.T) {
	doc, err := Parse([]byte("a \\\n  b"), DefaultOptions())
	require.Nil(t, err)
	require.Equal(t, 1, doc.DirectiveCount())
	if diff := cmp.Diff([]string{"a", "b"}, argValues(doc.DirectiveAt(0))); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParseQuotedEscapedArgument(t *testing.T) {
	doc, err := Parse([]byte(`"he said \"hi\""`), DefaultOptions())
	require.Nil(t, err)
	d := doc.DirectiveAt(0)
	require.Equal(t, 1, d.ArgumentCount())
	require.Equal(t, `he said "hi"`, d.ArgumentAt(0))
}

func TestParseTripleQuotedEmbeddedNewline(t *testing.T) {
	doc, err := Parse([]byte("line \"\"\"line1\nline2\"\"\""), DefaultOptions())
	require.Nil(t, err)
	d := doc.DirectiveAt(0)
	require.Equal(t, 2, d.ArgumentCount())
	require.Equal(t, "line1\nline2", d.ArgumentAt(1))
	require.True(t, d.Arguments[1].IsExpression == false)
}

func TestParseUnterminatedBlockFails(t *testing.T) {
	_, err := Parse([]byte("foo {"), DefaultOptions())
	require.NotNil(t, err)
	require.Equal(t, lexer.BadSyntax, err.Code)
}

func TestParseMaxDepthExceeded(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 2
	_, err := Parse([]byte("a { b { c { d } } }"), opts)
	require.NotNil(t, err)
	require.Equal(t, lexer.MaxDepthExceeded, err.Code)
}

func TestParseBidiRejectedUnlessAllowed(t *testing.T) {
	src := []byte("a ⁦b⁩")

	_, err := Parse(src, DefaultOptions())
	require.NotNil(t, err)
	require.Equal(t, lexer.BadSyntax, err.Code)

	opts := DefaultOptions()
	opts.AllowBidi = true
	doc, err := Parse(src, opts)
	require.Nil(t, err)
	require.Equal(t, 1, doc.DirectiveCount())
}

func TestParseStrayCloseBraceIsBadSyntax(t *testing.T) {
	_, err := Parse([]byte("}"), DefaultOptions())
	require.NotNil(t, err)
	require.Equal(t, lexer.BadSyntax, err.Code)
}

func TestParseTrailingSemicolonAfterBlockTolerated(t *testing.T) {
	doc, err := Parse([]byte("foo { bar }; baz"), DefaultOptions())
	require.Nil(t, err)
	require.Equal(t, 2, doc.DirectiveCount())
	require.Equal(t, "baz", doc.DirectiveAt(1).ArgumentAt(0))
}

func TestParseCommentsRecorded(t *testing.T) {
	doc, err := Parse([]byte("# top\nfoo {\n  # inner\n  bar\n}"), DefaultOptions())
	require.Nil(t, err)
	require.Equal(t, 2, doc.CommentCount())
}

func TestParsePunctuatorArgumentExtension(t *testing.T) {
	opts := DefaultOptions()
	opts.PunctuatorArguments = []string{"=>"}
	doc, err := Parse([]byte("route =>handler"), opts)
	require.Nil(t, err)
	d := doc.DirectiveAt(0)
	if diff := cmp.Diff([]string{"route", "=>", "handler"}, argValues(d)); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParseExpressionArgumentExtension(t *testing.T) {
	opts := DefaultOptions()
	opts.ExpressionArguments = true
	doc, err := Parse([]byte("calc (1 + 2)"), opts)
	require.Nil(t, err)
	d := doc.DirectiveAt(0)
	require.Equal(t, 2, d.ArgumentCount())
	require.True(t, d.Arguments[1].IsExpression)
	require.Equal(t, "1 + 2", d.ArgumentAt(1))
}

func TestParseInvalidPunctuatorOptionIsInvalidOperation(t *testing.T) {
	opts := DefaultOptions()
	opts.PunctuatorArguments = []string{"a b"}
	_, err := Parse([]byte("x"), opts)
	require.NotNil(t, err)
	require.Equal(t, lexer.InvalidOperation, err.Code)
}

func TestWalkAbortsOnFirstDirective(t *testing.T) {
	var events []EventKind
	err := Walk([]byte("a b\nc d"), DefaultOptions(), func(kind EventKind, args []ast.Argument, c *ast.Comment) int {
		events = append(events, kind)
		return 1
	})
	require.NotNil(t, err)
	require.Equal(t, lexer.UserAborted, err.Code)
	require.Equal(t, []EventKind{DirectiveEvent}, events)
}

func TestWalkDeliversBlockEvents(t *testing.T) {
	var events []EventKind
	err := Walk([]byte("outer {\n inner\n}"), DefaultOptions(), func(kind EventKind, args []ast.Argument, c *ast.Comment) int {
		events = append(events, kind)
		return 0
	})
	require.Nil(t, err)
	want := []EventKind{DirectiveEvent, BlockEnter, DirectiveEvent, BlockLeave}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkNilCallbackIsInvalidOperation(t *testing.T) {
	err := Walk([]byte("a"), DefaultOptions(), nil)
	require.NotNil(t, err)
	require.Equal(t, lexer.InvalidOperation, err.Code)
}

func TestParseBOMSkippedIsObservationallyIdentical(t *testing.T) {
	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte("foo bar")...)
	docA, errA := Parse(withBOM, DefaultOptions())
	docB, errB := Parse([]byte("foo bar"), DefaultOptions())
	require.Nil(t, errA)
	require.Nil(t, errB)
	if diff := cmp.Diff(argValues(docB.DirectiveAt(0)), argValues(docA.DirectiveAt(0))); diff != "" {
		t.Fatalf("BOM parse differs (-want +got):\n%s", diff)
	}
}

func TestParseOffsetsMonotonicAcrossArguments(t *testing.T) {
	doc, err := Parse([]byte("a b c"), DefaultOptions())
	require.Nil(t, err)
	args := doc.DirectiveAt(0).Arguments
	for i := 1; i < len(args); i++ {
		require.Greater(t, args[i].SourceOffset, args[i-1].SourceOffset)
	}
}

package parser

import (
	"github.com/aledsdavies/confetti/pkgs/lexer"
	"github.com/aledsdavies/confetti/pkgs/punct"
)

// Options carries every recognized configuration key from §3. A
// MaxDepth of zero or less selects the default depth, so the zero value
// parses like DefaultOptions.
type Options struct {
	MaxDepth  int
	AllowBidi bool

	CStyleComments      bool
	ExpressionArguments bool
	PunctuatorArguments []string
}

// DefaultOptions returns the documented defaults: max_depth 32767,
// allow_bidi false, and every extension disabled.
func DefaultOptions() Options {
	return Options{MaxDepth: 32767}
}

// buildPunctIndex validates and compiles PunctuatorArguments, wrapping
// the plain validation error punct.New returns into the shared error
// taxonomy as INVALID_OPERATION per §7.
func (o Options) buildPunctIndex() (*punct.Index, *lexer.Error) {
	ix, err := punct.New(o.PunctuatorArguments, o.ExpressionArguments)
	if err != nil {
		return nil, lexer.NewError(lexer.InvalidOperation, 0, "%s", err.Error())
	}
	return ix, nil
}

func (o Options) lexerConfig(ix *punct.Index) lexer.Config {
	return lexer.Config{
		AllowBidi:           o.AllowBidi,
		CStyleComments:      o.CStyleComments,
		ExpressionArguments: o.ExpressionArguments,
		Puncts:              ix,
	}
}

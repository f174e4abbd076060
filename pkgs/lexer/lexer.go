package lexer

import (
	"bytes"

	"github.com/aledsdavies/confetti/pkgs/classifier"
	"github.com/aledsdavies/confetti/pkgs/punct"
	"github.com/aledsdavies/confetti/pkgs/utf8decode"
)

// Config carries the extensions and options the Lexer needs while
// scanning. It is a narrower view of the public parser.Options — the
// Lexer has no notion of max_depth or allocators, only of how to read
// the byte stream in front of it.
type Config struct {
	AllowBidi           bool
	CStyleComments      bool
	ExpressionArguments bool
	Puncts              *punct.Index
}

// Lexer produces a lazy, rewindable single-token lookahead over a
// source buffer. Whitespace is never surfaced; comments are skipped
// but reported at most once per source position through OnComment, the
// side channel §4.4 describes — a Build-mode sink records them, a
// Walk-mode sink fires a COMMENT event immediately.
type Lexer struct {
	src []byte
	pos int  // byte offset of ch
	ch  rune // current scalar under examination
	chW int  // width in bytes of ch; 0 at true end-of-input

	cfg Config

	// commentHigh is the largest comment offset already surfaced.
	// Restoring a saved position must never re-report a comment, so
	// Restore does not touch this field — see §4.4.5.
	commentHigh int

	hasTok bool
	tok    Token
	tokErr *Error

	// OnComment is invoked the first time a comment at a given offset
	// is surfaced. It is nil-safe: a Lexer with no OnComment simply
	// drops comments on the floor, which is fine for callers that
	// don't need them (none in this module, but kept as a hook other
	// callers of the package can set).
	OnComment func(offset, length int)
}

// New builds a Lexer over src. A leading UTF-8 byte-order mark is
// silently discarded per §6.
func New(src []byte, cfg Config) *Lexer {
	l := &Lexer{src: stripBOM(src), cfg: cfg, commentHigh: -1}
	l.ch, l.chW = l.decodeAt(0)
	l.pos = 0
	return l
}

func stripBOM(src []byte) []byte {
	if len(src) >= 3 && src[0] == 0xEF && src[1] == 0xBB && src[2] == 0xBF {
		return src[3:]
	}
	return src
}

// Mark is an opaque snapshot of the Lexer's position and look-ahead
// slot, used to implement the rewind the parser's two-pass
// materialization strategy depends on.
type Mark struct {
	pos    int
	ch     rune
	chW    int
	hasTok bool
	tok    Token
	tokErr *Error
}

// Save captures the current position and look-ahead for a later
// Restore.
func (l *Lexer) Save() Mark {
	return Mark{pos: l.pos, ch: l.ch, chW: l.chW, hasTok: l.hasTok, tok: l.tok, tokErr: l.tokErr}
}

// Restore rewinds to a previously captured Mark. The comment
// high-water mark is deliberately left untouched: a comment already
// surfaced during the scan leading up to m is never reported again on
// replay.
func (l *Lexer) Restore(m Mark) {
	l.pos, l.ch, l.chW = m.pos, m.ch, m.chW
	l.hasTok, l.tok, l.tokErr = m.hasTok, m.tok, m.tokErr
}

// Peek returns the current look-ahead token without consuming it.
// Repeated calls with no intervening Advance return the same token.
func (l *Lexer) Peek() (Token, *Error) {
	if !l.hasTok {
		l.tok, l.tokErr = l.nextSignificant()
		l.hasTok = true
	}
	return l.tok, l.tokErr
}

// Advance discards the current look-ahead token so the next Peek scans
// a fresh one.
func (l *Lexer) Advance() {
	l.hasTok = false
}

// nextSignificant scans raw tokens until it finds one the parser
// cares about, silently skipping WHITESPACE and routing COMMENT to
// OnComment (at most once per offset, per the high-water mark).
func (l *Lexer) nextSignificant() (Token, *Error) {
	for {
		tok, err := l.scanRaw()
		if err != nil {
			return Token{}, err
		}
		switch tok.Kind {
		case Whitespace:
			continue
		case Comment:
			if tok.Offset > l.commentHigh {
				l.commentHigh = tok.Offset
				if l.OnComment != nil {
					l.OnComment(tok.Offset, tok.Length)
				}
			}
			continue
		default:
			return tok, nil
		}
	}
}

// decodeAt decodes one scalar at byte offset pos without disturbing
// the Lexer's current position.
func (l *Lexer) decodeAt(pos int) (rune, int) {
	return utf8decode.Decode(l.src, pos)
}

// advance moves to the scalar following the current one.
func (l *Lexer) advance() {
	l.pos += l.chW
	l.ch, l.chW = l.decodeAt(l.pos)
}

// seek jumps directly to a byte offset, re-decoding the scalar there.
// Used by scan functions that work with a local cursor (quoted and
// expression arguments) to hand control back to the main ch/chW state
// once they've found the end of their token.
func (l *Lexer) seek(pos int) {
	l.pos = pos
	l.ch, l.chW = l.decodeAt(pos)
}

// step advances without validating the new current character. Safe for
// single-byte structural tokens, where any problem in the character
// that follows is the next scanRaw call's concern, not this one's.
func (l *Lexer) step() { l.advance() }

// consume advances and validates the new current character, surfacing
// malformed UTF-8 or an unwelcome BiDi control immediately. Used inside
// every multi-character scan (comments, whitespace runs, expression
// arguments) since those characters are folded into the current
// token's span rather than becoming the start of the next one.
func (l *Lexer) consume() *Error {
	l.advance()
	if l.ch == utf8decode.BadEncoding {
		return NewError(IllegalByteSequence, l.pos, "malformed UTF-8")
	}
	return l.checkBidi()
}

func (l *Lexer) checkBidi() *Error {
	if !l.cfg.AllowBidi && classifier.Of(l.ch)&classifier.Bidi != 0 {
		return NewError(BadSyntax, l.pos, "illegal bidirectional character")
	}
	return nil
}

func (l *Lexer) peekCh() (rune, int) {
	return l.decodeAt(l.pos + l.chW)
}

func (l *Lexer) peekIs(want rune) bool {
	cp, _ := l.peekCh()
	return cp == want
}

func (l *Lexer) newlineLenHere() int {
	return classifier.NewlineLen(l.ch, l.chW, l.restAfterCh())
}

func (l *Lexer) restAfterCh() []byte {
	return l.src[l.pos+l.chW:]
}

func (l *Lexer) newlineLenAfterBackslash() int {
	cp, w := l.peekCh()
	if w == 0 {
		return 0
	}
	return classifier.NewlineLen(cp, w, l.src[l.pos+l.chW+w:])
}

func (l *Lexer) isTripleQuoteAt(pos int) bool {
	return pos+2 < len(l.src) && l.src[pos] == '"' && l.src[pos+1] == '"' && l.src[pos+2] == '"'
}

func (l *Lexer) atFileEnd(pos int) bool {
	return pos >= len(l.src) || l.src[pos] == 0
}

// scanRaw applies the thirteen-rule decision order of §4.4, examining
// the current byte/scalar and dispatching to exactly one scan
// function. Whitespace and comments are returned like any other token;
// nextSignificant is what filters and routes them.
func (l *Lexer) scanRaw() (Token, *Error) {
	if l.ch == utf8decode.BadEncoding {
		return Token{}, NewError(IllegalByteSequence, l.pos, "malformed UTF-8")
	}
	if err := l.checkBidi(); err != nil {
		return Token{}, err
	}

	start := l.pos

	switch {
	case l.ch == '#':
		return l.scanLineComment(start)

	case l.cfg.CStyleComments && l.ch == '/' && l.peekIs('/'):
		return l.scanLineComment(start)

	case l.cfg.CStyleComments && l.ch == '/' && l.peekIs('*'):
		return l.scanBlockComment(start)

	case l.newlineLenHere() > 0:
		return l.scanNewline(start)

	case classifier.Of(l.ch)&classifier.Space != 0:
		return l.scanWhitespace(start)

	case l.cfg.Puncts != nil && l.cfg.Puncts.Match(l.src[l.pos:]) > 0:
		return l.scanPunctuatorArgument(start, l.cfg.Puncts.Match(l.src[l.pos:]))

	case l.cfg.ExpressionArguments && l.ch == '(':
		return l.scanExpressionArgument(start)

	case l.ch == '{':
		l.step()
		return Token{Kind: LBrace, Offset: start, Length: l.pos - start}, nil

	case l.ch == '}':
		l.step()
		return Token{Kind: RBrace, Offset: start, Length: l.pos - start}, nil

	case l.ch == '"' && l.isTripleQuoteAt(l.pos):
		return l.scanTripleQuoted(start)

	case l.ch == '"':
		return l.scanSingleQuoted(start)

	case l.ch == ';':
		l.step()
		return Token{Kind: Semicolon, Offset: start, Length: l.pos - start}, nil

	case l.ch == '\\' && l.newlineLenAfterBackslash() > 0:
		return l.scanLineContinuation(start)

	case classifier.Of(l.ch)&classifier.Argument != 0:
		return l.scanUnquotedArgument(start)

	case l.ch == 0:
		return Token{Kind: End, Offset: start, Length: 0}, nil

	case l.ch == 0x1A && l.atFileEnd(l.pos+l.chW):
		// Legacy MS-DOS end-of-file marker: silently consumed only
		// when it is the last scalar of the input.
		l.seek(l.pos + l.chW)
		return Token{Kind: End, Offset: start, Length: 0}, nil

	default:
		return Token{}, NewError(BadSyntax, start, "illegal character U+%04X", l.ch)
	}
}

func (l *Lexer) scanLineComment(start int) (Token, *Error) {
	if l.ch == '#' {
		if err := l.consume(); err != nil {
			return Token{}, err
		}
	} else {
		if err := l.consume(); err != nil { // past first '/'
			return Token{}, err
		}
		if err := l.consume(); err != nil { // past second '/'
			return Token{}, err
		}
	}
	for l.ch != 0 && l.newlineLenHere() == 0 {
		if err := l.consume(); err != nil {
			return Token{}, err
		}
	}
	return Token{Kind: Comment, Offset: start, Length: l.pos - start}, nil
}

func (l *Lexer) scanBlockComment(start int) (Token, *Error) {
	if err := l.consume(); err != nil { // past '/'
		return Token{}, err
	}
	if err := l.consume(); err != nil { // past '*'
		return Token{}, err
	}
	for {
		if l.ch == 0 {
			return Token{}, NewError(BadSyntax, start, "unterminated multi-line comment")
		}
		if l.ch == '*' && l.peekIs('/') {
			if err := l.consume(); err != nil { // past '*'
				return Token{}, err
			}
			if err := l.consume(); err != nil { // past '/'
				return Token{}, err
			}
			break
		}
		if err := l.consume(); err != nil {
			return Token{}, err
		}
	}
	return Token{Kind: Comment, Offset: start, Length: l.pos - start}, nil
}

func (l *Lexer) scanNewline(start int) (Token, *Error) {
	n := l.newlineLenHere()
	if n > l.chW {
		if err := l.consume(); err != nil { // CR -> LF of a CR LF pair
			return Token{}, err
		}
	}
	if err := l.consume(); err != nil {
		return Token{}, err
	}
	return Token{Kind: Newline, Offset: start, Length: l.pos - start}, nil
}

func (l *Lexer) scanWhitespace(start int) (Token, *Error) {
	for classifier.Of(l.ch)&classifier.Space != 0 {
		if err := l.consume(); err != nil {
			return Token{}, err
		}
	}
	return Token{Kind: Whitespace, Offset: start, Length: l.pos - start}, nil
}

func (l *Lexer) scanPunctuatorArgument(start, n int) (Token, *Error) {
	for l.pos < start+n {
		if err := l.consume(); err != nil {
			return Token{}, err
		}
	}
	return Token{Kind: Argument, Flag: Unquoted, Offset: start, Length: n}, nil
}

// scanExpressionArgument implements the virtual-stack parenthesis
// counter of §4.4 rule 6: depth starts at one for the opening '(' and
// the token ends the instant it returns to zero.
func (l *Lexer) scanExpressionArgument(start int) (Token, *Error) {
	depth := 1
	if err := l.consume(); err != nil { // past '('
		return Token{}, err
	}
	for {
		if l.ch == 0 {
			return Token{}, NewError(BadSyntax, start, "incomplete expression")
		}
		if classifier.Of(l.ch)&classifier.Forbidden != 0 {
			return Token{}, NewError(BadSyntax, l.pos, "illegal character U+%04X", l.ch)
		}
		switch l.ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				if err := l.consume(); err != nil {
					return Token{}, err
				}
				return Token{Kind: Argument, Flag: Expression, Offset: start, Length: l.pos - start, Trim: 1}, nil
			}
		}
		if err := l.consume(); err != nil {
			return Token{}, err
		}
	}
}

// scanTripleQuoted implements §4.4.1. The closing """ is checked before
// decoding the next scalar on every iteration, so a lone or doubled
// quote mid-content that never completes a run of three falls through
// to the ordinary character-class check below, where `"` is
// ARGUMENT-class and is kept as content.
func (l *Lexer) scanTripleQuoted(start int) (Token, *Error) {
	at := start + 3
	for {
		if l.isTripleQuoteAt(at) {
			at += 3
			break
		}
		cp, w := l.decodeAt(at)
		if w == 0 {
			if cp == 0 {
				return Token{}, NewError(BadSyntax, at, "unclosed quoted")
			}
			return Token{}, NewError(IllegalByteSequence, at, "malformed UTF-8")
		}
		if !l.cfg.AllowBidi && classifier.Of(cp)&classifier.Bidi != 0 {
			return Token{}, NewError(BadSyntax, at, "illegal bidirectional character")
		}

		if cp == '\\' {
			escAt := at + 1
			escCp, escW := l.decodeAt(escAt)
			if escW == 0 || classifier.Of(escCp)&classifier.Escapable == 0 {
				if escW == 0 || classifier.NewlineLen(escCp, escW, l.src[escAt+escW:]) > 0 {
					return Token{}, NewError(BadSyntax, escAt, "incomplete escape sequence")
				}
				return Token{}, NewError(BadSyntax, escAt, "illegal escape character")
			}
			if !l.cfg.AllowBidi && classifier.Of(escCp)&classifier.Bidi != 0 {
				return Token{}, NewError(BadSyntax, escAt, "illegal bidirectional character")
			}
			at = escAt + escW
			continue
		}

		if nl := classifier.NewlineLen(cp, w, l.src[at+w:]); nl > 0 {
			at += nl
			continue
		}

		if classifier.Of(cp)&(classifier.Escapable|classifier.Space) == 0 {
			return Token{}, NewError(BadSyntax, at, "illegal character")
		}
		at += w
	}
	l.seek(at)
	return Token{Kind: Argument, Flag: TripleQuoted, Offset: start, Length: at - start, Trim: 3}, nil
}

// scanSingleQuoted implements §4.4.2. The closing quote is checked
// before the general illegal-character test, since a single quote
// character has no other way to terminate the literal.
func (l *Lexer) scanSingleQuoted(start int) (Token, *Error) {
	at := start + 1
	for {
		cp, w := l.decodeAt(at)
		if w == 0 {
			if cp == 0 {
				return Token{}, NewError(BadSyntax, at, "unclosed quoted")
			}
			return Token{}, NewError(IllegalByteSequence, at, "malformed UTF-8")
		}
		if classifier.NewlineLen(cp, w, l.src[at+w:]) > 0 {
			return Token{}, NewError(BadSyntax, at, "unclosed quoted")
		}
		if !l.cfg.AllowBidi && classifier.Of(cp)&classifier.Bidi != 0 {
			return Token{}, NewError(BadSyntax, at, "illegal bidirectional character")
		}

		if cp == '\\' {
			escAt := at + 1
			escCp, escW := l.decodeAt(escAt)
			if escW > 0 {
				if nl := classifier.NewlineLen(escCp, escW, l.src[escAt+escW:]); nl > 0 {
					// Soft line continuation: backslash and newline
					// both vanish from the decoded value.
					at = escAt + nl
					continue
				}
			}
			if escW == 0 || classifier.Of(escCp)&classifier.Escapable == 0 {
				if escW == 0 {
					return Token{}, NewError(BadSyntax, escAt, "incomplete escape sequence")
				}
				return Token{}, NewError(BadSyntax, escAt, "illegal escape character")
			}
			if !l.cfg.AllowBidi && classifier.Of(escCp)&classifier.Bidi != 0 {
				return Token{}, NewError(BadSyntax, escAt, "illegal bidirectional character")
			}
			at = escAt + escW
			continue
		}

		if cp == '"' {
			at += w
			break
		}

		if classifier.Of(cp)&(classifier.Escapable|classifier.Space) == 0 {
			return Token{}, NewError(BadSyntax, at, "illegal character")
		}
		at += w
	}
	l.seek(at)
	return Token{Kind: Argument, Flag: Quoted, Offset: start, Length: at - start, Trim: 1}, nil
}

func (l *Lexer) scanLineContinuation(start int) (Token, *Error) {
	nlAt := l.pos + l.chW
	cp, w := l.decodeAt(nlAt)
	n := classifier.NewlineLen(cp, w, l.src[nlAt+w:])
	end := nlAt + n
	l.seek(end)
	return Token{Kind: LineContinuation, Offset: start, Length: end - start}, nil
}

// scanUnquotedArgument implements §4.4.3: extend while the next scalar
// is ARGUMENT-class, transparently handling \x escapes, and stop
// (without consuming the stopping scalar) at the first non-ARGUMENT
// character, the start of an expression argument, a punctuator match,
// or a backslash that begins a line continuation. Malformed UTF-8
// inside the run is reported as ILLEGAL_BYTE_SEQUENCE.
func (l *Lexer) scanUnquotedArgument(start int) (Token, *Error) {
	at := start
	for {
		cp, w := l.decodeAt(at)
		if cp == utf8decode.BadEncoding {
			return Token{}, NewError(IllegalByteSequence, at, "malformed UTF-8")
		}

		if cp == '\\' && w > 0 {
			escAt := at + w
			escCp, escW := l.decodeAt(escAt)
			if escW > 0 && classifier.NewlineLen(escCp, escW, l.src[escAt+escW:]) > 0 {
				break // the line continuation is scanned as its own token
			}
			if escW == 0 || classifier.Of(escCp)&classifier.Escapable == 0 {
				return Token{}, NewError(BadSyntax, escAt, "illegal escape character")
			}
			if !l.cfg.AllowBidi && classifier.Of(escCp)&classifier.Bidi != 0 {
				return Token{}, NewError(BadSyntax, escAt, "illegal bidirectional character")
			}
			at = escAt + escW
			continue
		}

		if classifier.Of(cp)&classifier.Argument == 0 {
			break
		}
		if !l.cfg.AllowBidi && classifier.Of(cp)&classifier.Bidi != 0 {
			return Token{}, NewError(BadSyntax, at, "illegal bidirectional character")
		}
		if l.cfg.ExpressionArguments && cp == '(' {
			break
		}
		if l.cfg.Puncts != nil && l.cfg.Puncts.Match(l.src[at:]) > 0 {
			break
		}
		at += w
	}
	l.seek(at)
	return Token{Kind: Argument, Flag: Unquoted, Offset: start, Length: at - start}, nil
}

// AppendValue decodes tok's value per §4.4.4 — trim Trim bytes from
// each end, then copy the remainder, dropping escaping backslashes and
// (for quoted forms) the newline a soft continuation elides — and
// appends it to dst. The parser's second materialization pass uses
// this to copy argument values directly into one pre-sized buffer.
func (l *Lexer) AppendValue(dst []byte, tok Token) []byte {
	raw := l.src[tok.Offset+tok.Trim : tok.Offset+tok.Length-tok.Trim]
	if bytes.IndexByte(raw, '\\') < 0 {
		return append(dst, raw...)
	}

	quoted := tok.Flag == Quoted || tok.Flag == TripleQuoted
	i := 0
	for i < len(raw) {
		if raw[i] == '\\' && i+1 < len(raw) {
			if quoted {
				cp, w := utf8decode.Decode(raw, i+1)
				if w > 0 {
					if nl := classifier.NewlineLen(cp, w, raw[i+1+w:]); nl > 0 {
						i += 1 + nl
						continue
					}
				}
			}
			i++
			_, w := utf8decode.Decode(raw, i)
			if w == 0 {
				w = 1
			}
			dst = append(dst, raw[i:i+w]...)
			i += w
			continue
		}
		_, w := utf8decode.Decode(raw, i)
		if w == 0 {
			w = 1
		}
		dst = append(dst, raw[i:i+w]...)
		i += w
	}
	return dst
}

// ValueLen reports the decoded byte length AppendValue would produce,
// without allocating. The parser's first materialization pass uses
// this to size the shared argument buffer before a single allocation.
func (l *Lexer) ValueLen(tok Token) int {
	raw := l.src[tok.Offset+tok.Trim : tok.Offset+tok.Length-tok.Trim]
	if bytes.IndexByte(raw, '\\') < 0 {
		return len(raw)
	}

	quoted := tok.Flag == Quoted || tok.Flag == TripleQuoted
	n := 0
	i := 0
	for i < len(raw) {
		if raw[i] == '\\' && i+1 < len(raw) {
			if quoted {
				cp, w := utf8decode.Decode(raw, i+1)
				if w > 0 {
					if nl := classifier.NewlineLen(cp, w, raw[i+1+w:]); nl > 0 {
						i += 1 + nl
						continue
					}
				}
			}
			i++
			_, w := utf8decode.Decode(raw, i)
			if w == 0 {
				w = 1
			}
			n += w
			i += w
			continue
		}
		_, w := utf8decode.Decode(raw, i)
		if w == 0 {
			w = 1
		}
		n += w
		i += w
	}
	return n
}

// Value decodes tok's value per §4.4.4 as a standalone string. Callers
// that don't need the two-pass shared-buffer discipline (tests, mostly)
// can use this directly.
func (l *Lexer) Value(tok Token) string {
	return string(l.AppendValue(nil, tok))
}

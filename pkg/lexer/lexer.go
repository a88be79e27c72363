// Package lexer turns Timber source text into a token sequence.
package lexer

import (
	"fmt"
	"os"

	"github.com/rmay/timber/pkg/token"
)

// LexingError reports an unrecognized starting character.
type LexingError struct {
	Char  byte
	Index int
}

func (e *LexingError) Error() string {
	return fmt.Sprintf("lexing error at byte %d: unexpected character %q", e.Index, e.Char)
}

// Lexer scans Timber source text into tokens, one outermost iteration per
// token, left to right.
type Lexer struct {
	src   string
	pos   int
	trace bool
}

// New constructs a Lexer over src. trace, if true, prints one line per
// token scanned to stderr, mirroring the teacher's trace-gated logging.
func New(src string, trace ...bool) *Lexer {
	traceEnabled := false
	if len(trace) > 0 {
		traceEnabled = trace[0]
	}
	return &Lexer{src: src, trace: traceEnabled}
}

// Tokenize runs the lexer to completion and returns every token in order.
// This is a thin driver over NextToken; the real scanning policy lives
// there.
func Tokenize(src string, trace ...bool) ([]token.Token, error) {
	l := New(src, trace...)
	var toks []token.Token
	for {
		tok, ok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		toks = append(toks, tok)
	}
	reclassifyKeywords(toks)
	return toks, nil
}

// NextToken scans and returns the next token. ok is false at end of
// input with no error. Whitespace and comments are consumed but never
// returned as tokens.
func (l *Lexer) NextToken() (token.Token, bool, error) {
	for {
		if l.pos >= len(l.src) {
			return token.Token{}, false, nil
		}
		ch := l.src[l.pos]

		if ch == '#' {
			l.skipLineComment()
			continue
		}
		if isWhitespace(ch) {
			l.pos++
			continue
		}
		break
	}

	start := l.pos
	ch := l.src[l.pos]

	if kind, ok := token.SingleCharKind(ch); ok {
		l.pos++
		if l.trace {
			fmt.Fprintf(os.Stderr, "lexer: %03d %s\n", start, kind)
		}
		return token.Token{Kind: kind, SourceIndex: start}, true, nil
	}

	if token.IsWordChar(ch) {
		for l.pos < len(l.src) && token.IsWordChar(l.src[l.pos]) {
			l.pos++
		}
		value := l.src[start:l.pos]
		if l.trace {
			fmt.Fprintf(os.Stderr, "lexer: %03d WORD %s\n", start, value)
		}
		return token.Token{Kind: token.Word, SourceIndex: start, StrValue: value}, true, nil
	}

	if token.IsDigit(ch) {
		for l.pos < len(l.src) && token.IsDigit(l.src[l.pos]) {
			l.pos++
		}
		value := 0
		for _, d := range []byte(l.src[start:l.pos]) {
			value = value*10 + int(d-'0')
		}
		if l.trace {
			fmt.Fprintf(os.Stderr, "lexer: %03d INT %d\n", start, value)
		}
		return token.Token{Kind: token.Int, SourceIndex: start, IntValue: value}, true, nil
	}

	return token.Token{}, false, &LexingError{Char: ch, Index: start}
}

func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
}

func isWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// reclassifyKeywords is the lexer's second pass: any Word whose text
// matches a keyword becomes a Keyword token carrying the matched tag.
// SourceIndex is untouched.
func reclassifyKeywords(toks []token.Token) {
	for i, tok := range toks {
		if tok.Kind != token.Word {
			continue
		}
		if kw, ok := token.KeywordFromString(tok.StrValue); ok {
			toks[i] = token.Token{
				Kind:        token.Keyword,
				SourceIndex: tok.SourceIndex,
				KeywordTag:  kw,
			}
		}
	}
}

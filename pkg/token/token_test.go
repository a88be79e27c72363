package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "WORD", Word.String())
	assert.Equal(t, "INT", Int.String())
	assert.Contains(t, Kind(999).String(), "UNKNOWN")
}

func TestSingleCharKind(t *testing.T) {
	k, ok := SingleCharKind('(')
	assert.True(t, ok)
	assert.Equal(t, LParen, k)

	_, ok = SingleCharKind('a')
	assert.False(t, ok)
}

func TestKeywordFromString(t *testing.T) {
	kw, ok := KeywordFromString("while")
	assert.True(t, ok)
	assert.Equal(t, KwWhile, kw)
	assert.Equal(t, "while", kw.String())

	_, ok = KeywordFromString("notakeyword")
	assert.False(t, ok)
}

func TestIsWordChar(t *testing.T) {
	assert.True(t, IsWordChar('+'))
	assert.True(t, IsWordChar('_'))
	assert.True(t, IsWordChar('Z'))
	assert.False(t, IsWordChar('@'))
	assert.False(t, IsWordChar('1'))
}

func TestIsDigit(t *testing.T) {
	assert.True(t, IsDigit('0'))
	assert.True(t, IsDigit('9'))
	assert.False(t, IsDigit('a'))
}

func TestTokenString(t *testing.T) {
	tok := Token{Kind: Int, SourceIndex: 5, IntValue: 42}
	assert.Equal(t, "005 INT 42", tok.String())

	tok = Token{Kind: Word, SourceIndex: 0, StrValue: "foo"}
	assert.Equal(t, "000 WORD foo", tok.String())

	tok = Token{Kind: Keyword, SourceIndex: 2, KeywordTag: KwIf}
	assert.Equal(t, "002 KEYWORD if", tok.String())

	tok = Token{Kind: Semi, SourceIndex: 9}
	assert.Equal(t, "009 SEMI", tok.String())
}

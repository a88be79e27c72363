package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmay/timber/pkg/token"
)

func TestTokenizeEmptyProgram(t *testing.T) {
	toks, err := Tokenize(`def main() { }`)
	require.NoError(t, err)

	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []token.Kind{
		token.Keyword, token.Word, token.LParen, token.RParen,
		token.LBrace, token.RBrace,
	}, kinds)
	assert.Equal(t, token.KwDef, toks[0].KeywordTag)
	assert.Equal(t, "main", toks[1].StrValue)
}

func TestTokenizeSourceIndexSurvivesReclassification(t *testing.T) {
	src := "while (n)"
	toks, err := Tokenize(src)
	require.NoError(t, err)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.Keyword, toks[0].Kind)
	assert.Equal(t, 0, toks[0].SourceIndex)
	assert.Equal(t, byte('w'), src[toks[0].SourceIndex])
}

func TestTokenizeIntLiteral(t *testing.T) {
	toks, err := Tokenize("123")
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, token.Int, toks[0].Kind)
	assert.Equal(t, 123, toks[0].IntValue)
}

func TestTokenizeOperatorWord(t *testing.T) {
	toks, err := Tokenize("a + b")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, "a", toks[0].StrValue)
	assert.Equal(t, "+", toks[1].StrValue)
	assert.Equal(t, "b", toks[2].StrValue)
}

func TestTokenizeComment(t *testing.T) {
	toks, err := Tokenize("var x # this is dropped\n;")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, token.Semi, toks[2].Kind)
}

func TestTokenizeUnknownCharacterFails(t *testing.T) {
	_, err := Tokenize("@")
	require.Error(t, err)
	var lexErr *LexingError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, byte('@'), lexErr.Char)
	assert.Equal(t, 0, lexErr.Index)
}

func TestTokenizeAllSingleCharTokens(t *testing.T) {
	toks, err := Tokenize(",=()[]{}!;")
	require.NoError(t, err)
	want := []token.Kind{
		token.Comma, token.Eq, token.LParen, token.RParen,
		token.LBrack, token.RBrack, token.LBrace, token.RBrace,
		token.Excl, token.Semi,
	}
	require.Len(t, toks, len(want))
	for i, k := range want {
		assert.Equal(t, k, toks[i].Kind)
	}
}

// Package parser implements the Timber recursive-descent parser: a
// token sequence plus an integer cursor goes in, an AST comes out.
// Every parseX method consumes tokens starting at a cursor and returns
// (node, new_cursor, error), mirroring the grammar in spec.md section
// 4.2 one production at a time.
package parser

import (
	"fmt"

	"github.com/rmay/timber/pkg/ast"
	"github.com/rmay/timber/pkg/token"
)

// ParserError reports an unexpected token, an unexpected keyword, or
// running out of tokens mid-production.
type ParserError struct {
	Msg string
	Tok *token.Token // nil when the stream was exhausted
}

func (e *ParserError) Error() string {
	if e.Tok == nil {
		return fmt.Sprintf("parser error: %s (end of token stream)", e.Msg)
	}
	return fmt.Sprintf("parser error at token %d: %s", e.Tok.SourceIndex, e.Msg)
}

// Parser wraps the fixed token slice the recursive descent walks over.
type Parser struct {
	toks []token.Token
}

// Parse consumes the entire token sequence and returns the Program
// root. It fails if any non-whitespace token remains unconsumed,
// enforcing the parser-totality invariant (spec.md section 8).
func Parse(toks []token.Token) (*ast.Program, error) {
	p := &Parser{toks: toks}
	prog, cursor, err := p.parseProgram(0)
	if err != nil {
		return nil, err
	}
	if cursor != len(toks) {
		return nil, &ParserError{Msg: "trailing tokens after program", Tok: &toks[cursor]}
	}
	return prog, nil
}

func (p *Parser) peek(pos int) (token.Token, bool) {
	if pos >= len(p.toks) {
		return token.Token{}, false
	}
	return p.toks[pos], true
}

func (p *Parser) unexpectedEOT(msg string) error {
	return &ParserError{Msg: msg}
}

func (p *Parser) consumeKind(pos int, k token.Kind, what string) (token.Token, int, error) {
	tok, ok := p.peek(pos)
	if !ok {
		return token.Token{}, pos, p.unexpectedEOT("expected " + what)
	}
	if tok.Kind != k {
		return token.Token{}, pos, &ParserError{Msg: "expected " + what, Tok: &tok}
	}
	return tok, pos + 1, nil
}

func (p *Parser) consumeKeyword(pos int, kw token.Keyword, what string) (token.Token, int, error) {
	tok, ok := p.peek(pos)
	if !ok {
		return token.Token{}, pos, p.unexpectedEOT("expected " + what)
	}
	if tok.Kind != token.Keyword || tok.KeywordTag != kw {
		return token.Token{}, pos, &ParserError{Msg: "expected " + what, Tok: &tok}
	}
	return tok, pos + 1, nil
}

// parseProgram := (var_decl ';' | fn_def)*
func (p *Parser) parseProgram(pos int) (*ast.Program, int, error) {
	start := pos
	prog := &ast.Program{}
	for {
		tok, ok := p.peek(pos)
		if !ok {
			break
		}
		if tok.Kind == token.Keyword && tok.KeywordTag == token.KwVar {
			decl, newPos, err := p.parseVarDecl(pos)
			if err != nil {
				return nil, pos, err
			}
			_, newPos, err = p.consumeKind(newPos, token.Semi, "';' after var_decl")
			if err != nil {
				return nil, pos, err
			}
			prog.VarDecls = append(prog.VarDecls, decl)
			pos = newPos
			continue
		}
		if tok.Kind == token.Keyword && tok.KeywordTag == token.KwDef {
			fn, newPos, err := p.parseFnDef(pos)
			if err != nil {
				return nil, pos, err
			}
			prog.FnDefs = append(prog.FnDefs, fn)
			pos = newPos
			continue
		}
		break
	}
	prog.SpanVal = ast.Span{Start: start, End: pos - 1}
	if pos == start {
		prog.SpanVal = ast.Span{Start: start, End: start}
	}
	return prog, pos, nil
}

// parseVarDecl := 'var' Word
func (p *Parser) parseVarDecl(pos int) (*ast.VarDecl, int, error) {
	start := pos
	_, pos, err := p.consumeKeyword(pos, token.KwVar, "'var'")
	if err != nil {
		return nil, start, err
	}
	nameTok, pos, err := p.consumeKind(pos, token.Word, "identifier after 'var'")
	if err != nil {
		return nil, start, err
	}
	return &ast.VarDecl{SpanVal: ast.Span{Start: start, End: pos - 1}, Name: nameTok.StrValue}, pos, nil
}

// parseFnDef := 'def' Word '(' ( var_decl (',' var_decl)* )? ')' block
func (p *Parser) parseFnDef(pos int) (*ast.FnDef, int, error) {
	start := pos
	_, pos, err := p.consumeKeyword(pos, token.KwDef, "'def'")
	if err != nil {
		return nil, start, err
	}
	nameTok, pos, err := p.consumeKind(pos, token.Word, "function name")
	if err != nil {
		return nil, start, err
	}
	_, pos, err = p.consumeKind(pos, token.LParen, "'(' after function name")
	if err != nil {
		return nil, start, err
	}

	var args []*ast.VarDecl
	if tok, ok := p.peek(pos); ok && tok.Kind != token.RParen {
		for {
			decl, newPos, err := p.parseVarDecl(pos)
			if err != nil {
				return nil, start, err
			}
			args = append(args, decl)
			pos = newPos
			tok, ok := p.peek(pos)
			if !ok {
				return nil, start, p.unexpectedEOT("expected ',' or ')' in argument list")
			}
			if tok.Kind == token.Comma {
				pos++
				continue
			}
			break
		}
	}
	_, pos, err = p.consumeKind(pos, token.RParen, "')' closing argument list")
	if err != nil {
		return nil, start, err
	}
	body, pos, err := p.parseBlock(pos)
	if err != nil {
		return nil, start, err
	}
	return &ast.FnDef{
		SpanVal:  ast.Span{Start: start, End: pos - 1},
		Name:     nameTok.StrValue,
		ArgDecls: args,
		Body:     body,
	}, pos, nil
}

// parseBlock := '{' ( var_decl ';' | stmt ';' )* '}'
func (p *Parser) parseBlock(pos int) (*ast.Block, int, error) {
	start := pos
	_, pos, err := p.consumeKind(pos, token.LBrace, "'{'")
	if err != nil {
		return nil, start, err
	}
	block := &ast.Block{}
	for {
		tok, ok := p.peek(pos)
		if !ok {
			return nil, start, p.unexpectedEOT("expected statement or '}'")
		}
		if tok.Kind == token.RBrace {
			break
		}
		if tok.Kind == token.Keyword && tok.KeywordTag == token.KwVar {
			decl, newPos, err := p.parseVarDecl(pos)
			if err != nil {
				return nil, start, err
			}
			_, newPos, err = p.consumeKind(newPos, token.Semi, "';' after var_decl")
			if err != nil {
				return nil, start, err
			}
			block.VarDecls = append(block.VarDecls, decl)
			pos = newPos
			continue
		}
		stmt, newPos, err := p.parseStmt(pos)
		if err != nil {
			return nil, start, err
		}
		_, newPos, err = p.consumeKind(newPos, token.Semi, "';' after statement")
		if err != nil {
			return nil, start, err
		}
		block.Stmts = append(block.Stmts, stmt)
		pos = newPos
	}
	_, pos, err = p.consumeKind(pos, token.RBrace, "'}'")
	if err != nil {
		return nil, start, err
	}
	block.SpanVal = ast.Span{Start: start, End: pos - 1}
	return block, pos, nil
}

// parseStmt := compound_stmt | simple_stmt
func (p *Parser) parseStmt(pos int) (ast.Stmt, int, error) {
	tok, ok := p.peek(pos)
	if !ok {
		return nil, pos, p.unexpectedEOT("expected statement")
	}
	if tok.Kind == token.LBrace ||
		(tok.Kind == token.Keyword && (tok.KeywordTag == token.KwWhile || tok.KeywordTag == token.KwIf)) {
		return p.parseCompoundStmt(pos)
	}
	return p.parseSimpleStmt(pos)
}

// parseCompoundStmt := while_stmt | if_stmt | block
func (p *Parser) parseCompoundStmt(pos int) (*ast.CompoundStmt, int, error) {
	start := pos
	tok, ok := p.peek(pos)
	if !ok {
		return nil, start, p.unexpectedEOT("expected compound statement")
	}
	var child ast.Node
	var newPos int
	var err error
	switch {
	case tok.Kind == token.Keyword && tok.KeywordTag == token.KwWhile:
		child, newPos, err = p.parseWhileStmt(pos)
	case tok.Kind == token.Keyword && tok.KeywordTag == token.KwIf:
		child, newPos, err = p.parseIfStmt(pos)
	case tok.Kind == token.LBrace:
		child, newPos, err = p.parseBlock(pos)
	default:
		return nil, start, &ParserError{Msg: "expected 'while', 'if', or '{'", Tok: &tok}
	}
	if err != nil {
		return nil, start, err
	}
	return &ast.CompoundStmt{SpanVal: ast.Span{Start: start, End: newPos - 1}, Child: child}, newPos, nil
}

// parseSimpleStmt := return_stmt | expr
func (p *Parser) parseSimpleStmt(pos int) (*ast.SimpleStmt, int, error) {
	start := pos
	tok, ok := p.peek(pos)
	if ok && tok.Kind == token.Keyword && tok.KeywordTag == token.KwReturn {
		ret, newPos, err := p.parseReturnStmt(pos)
		if err != nil {
			return nil, start, err
		}
		return &ast.SimpleStmt{SpanVal: ast.Span{Start: start, End: newPos - 1}, Child: ret}, newPos, nil
	}
	expr, newPos, err := p.parseExpr(pos)
	if err != nil {
		return nil, start, err
	}
	return &ast.SimpleStmt{SpanVal: ast.Span{Start: start, End: newPos - 1}, Child: expr}, newPos, nil
}

// parseReturnStmt := 'return' expr
func (p *Parser) parseReturnStmt(pos int) (*ast.ReturnStmt, int, error) {
	start := pos
	_, pos, err := p.consumeKeyword(pos, token.KwReturn, "'return'")
	if err != nil {
		return nil, start, err
	}
	expr, pos, err := p.parseExpr(pos)
	if err != nil {
		return nil, start, err
	}
	return &ast.ReturnStmt{SpanVal: ast.Span{Start: start, End: pos - 1}, Child: expr}, pos, nil
}

// parseWhileStmt := 'while' '(' expr ')' block
func (p *Parser) parseWhileStmt(pos int) (*ast.WhileStmt, int, error) {
	start := pos
	_, pos, err := p.consumeKeyword(pos, token.KwWhile, "'while'")
	if err != nil {
		return nil, start, err
	}
	_, pos, err = p.consumeKind(pos, token.LParen, "'(' after 'while'")
	if err != nil {
		return nil, start, err
	}
	guard, pos, err := p.parseExpr(pos)
	if err != nil {
		return nil, start, err
	}
	_, pos, err = p.consumeKind(pos, token.RParen, "')' after while guard")
	if err != nil {
		return nil, start, err
	}
	body, pos, err := p.parseBlock(pos)
	if err != nil {
		return nil, start, err
	}
	return &ast.WhileStmt{SpanVal: ast.Span{Start: start, End: pos - 1}, Guard: guard, Body: body}, pos, nil
}

// parseIfStmt := 'if' '(' expr ')' block
func (p *Parser) parseIfStmt(pos int) (*ast.IfStmt, int, error) {
	start := pos
	_, pos, err := p.consumeKeyword(pos, token.KwIf, "'if'")
	if err != nil {
		return nil, start, err
	}
	_, pos, err = p.consumeKind(pos, token.LParen, "'(' after 'if'")
	if err != nil {
		return nil, start, err
	}
	guard, pos, err := p.parseExpr(pos)
	if err != nil {
		return nil, start, err
	}
	_, pos, err = p.consumeKind(pos, token.RParen, "')' after if guard")
	if err != nil {
		return nil, start, err
	}
	body, pos, err := p.parseBlock(pos)
	if err != nil {
		return nil, start, err
	}
	return &ast.IfStmt{SpanVal: ast.Span{Start: start, End: pos - 1}, Guard: guard, Body: body}, pos, nil
}

// parseExpr := '(' expr ')' | Word '(' (expr (',' expr)*)? ')'
//            | Word Word            -- infix fn call (reserved)
//            | Word '=' expr        -- assign
//            | Word                 -- var
//            | Int                  -- literal
func (p *Parser) parseExpr(pos int) (ast.Expr, int, error) {
	start := pos
	tok, ok := p.peek(pos)
	if !ok {
		return nil, pos, p.unexpectedEOT("expected expression")
	}

	if tok.Kind == token.LParen {
		_, inner, err := p.consumeKind(pos, token.LParen, "'('")
		if err != nil {
			return nil, start, err
		}
		child, inner, err := p.parseExpr(inner)
		if err != nil {
			return nil, start, err
		}
		_, inner, err = p.consumeKind(inner, token.RParen, "')'")
		if err != nil {
			return nil, start, err
		}
		return &ast.ParenExpr{SpanVal: ast.Span{Start: start, End: inner - 1}, Child: child}, inner, nil
	}

	if tok.Kind == token.Int {
		lit, newPos, err := p.parseIntLit(pos)
		if err != nil {
			return nil, start, err
		}
		return &ast.Lit{SpanVal: lit.SpanVal, Child: lit}, newPos, nil
	}

	if tok.Kind == token.Word {
		next, hasNext := p.peek(pos + 1)
		switch {
		case hasNext && next.Kind == token.LParen:
			call, newPos, err := p.parseFnCall(pos)
			if err != nil {
				return nil, start, err
			}
			return call, newPos, nil
		case hasNext && next.Kind == token.Eq:
			return p.parseAssign(pos)
		case hasNext && next.Kind == token.Word:
			call, newPos, err := p.parseInfixFnCall(pos)
			if err != nil {
				return nil, start, err
			}
			return &ast.FnCall{SpanVal: call.SpanVal, Child: call}, newPos, nil
		default:
			return p.parseVar(pos)
		}
	}

	return nil, start, &ParserError{Msg: "expected expression", Tok: &tok}
}

// parseVar := Word
func (p *Parser) parseVar(pos int) (*ast.Var, int, error) {
	start := pos
	nameTok, pos, err := p.consumeKind(pos, token.Word, "identifier")
	if err != nil {
		return nil, start, err
	}
	return &ast.Var{SpanVal: ast.Span{Start: start, End: pos - 1}, Name: nameTok.StrValue}, pos, nil
}

// parseIntLit := Int
func (p *Parser) parseIntLit(pos int) (*ast.IntLit, int, error) {
	start := pos
	tok, pos, err := p.consumeKind(pos, token.Int, "integer literal")
	if err != nil {
		return nil, start, err
	}
	return &ast.IntLit{SpanVal: ast.Span{Start: start, End: pos - 1}, Value: tok.IntValue}, pos, nil
}

// parseAssign := Word '=' expr
func (p *Parser) parseAssign(pos int) (*ast.Assign, int, error) {
	start := pos
	nameTok, pos, err := p.consumeKind(pos, token.Word, "identifier")
	if err != nil {
		return nil, start, err
	}
	_, pos, err = p.consumeKind(pos, token.Eq, "'='")
	if err != nil {
		return nil, start, err
	}
	expr, pos, err := p.parseExpr(pos)
	if err != nil {
		return nil, start, err
	}
	return &ast.Assign{SpanVal: ast.Span{Start: start, End: pos - 1}, Name: nameTok.StrValue, Expr: expr}, pos, nil
}

// parseFnCall := Word '(' (expr (',' expr)*)? ')'
func (p *Parser) parseFnCall(pos int) (*ast.FnCall, int, error) {
	start := pos
	call, pos, err := p.parseDefaultFnCall(pos)
	if err != nil {
		return nil, start, err
	}
	return &ast.FnCall{SpanVal: call.SpanVal, Child: call}, pos, nil
}

func (p *Parser) parseDefaultFnCall(pos int) (*ast.DefaultFnCall, int, error) {
	start := pos
	nameTok, pos, err := p.consumeKind(pos, token.Word, "function name")
	if err != nil {
		return nil, start, err
	}
	_, pos, err = p.consumeKind(pos, token.LParen, "'(' after function name")
	if err != nil {
		return nil, start, err
	}
	var args []ast.Expr
	if tok, ok := p.peek(pos); ok && tok.Kind != token.RParen {
		for {
			arg, newPos, err := p.parseExpr(pos)
			if err != nil {
				return nil, start, err
			}
			args = append(args, arg)
			pos = newPos
			tok, ok := p.peek(pos)
			if !ok {
				return nil, start, p.unexpectedEOT("expected ',' or ')' in call arguments")
			}
			if tok.Kind == token.Comma {
				pos++
				continue
			}
			break
		}
	}
	_, pos, err = p.consumeKind(pos, token.RParen, "')' closing call arguments")
	if err != nil {
		return nil, start, err
	}
	return &ast.DefaultFnCall{SpanVal: ast.Span{Start: start, End: pos - 1}, Name: nameTok.StrValue, Args: args}, pos, nil
}

// parseInfixFnCall := Word Word -- grammatically recognized, never
// lowered; codegen's genFnCall rejects it at code-generation time.
func (p *Parser) parseInfixFnCall(pos int) (*ast.InfixFnCall, int, error) {
	start := pos
	nameTok, pos, err := p.consumeKind(pos, token.Word, "infix operator name")
	if err != nil {
		return nil, start, err
	}
	arg1, pos, err := p.parseVar(pos)
	if err != nil {
		return nil, start, err
	}
	arg2Tok, ok := p.peek(pos)
	if ok && arg2Tok.Kind == token.Word {
		arg2, newPos, err := p.parseVar(pos)
		if err != nil {
			return nil, start, err
		}
		return &ast.InfixFnCall{
			SpanVal: ast.Span{Start: start, End: newPos - 1},
			Name:    nameTok.StrValue,
			Arg1:    arg1,
			Arg2:    arg2,
		}, newPos, nil
	}
	return &ast.InfixFnCall{
		SpanVal: ast.Span{Start: start, End: pos - 1},
		Name:    nameTok.StrValue,
		Arg1:    arg1,
	}, pos, nil
}

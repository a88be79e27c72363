// Command timber is the front end over the Timber pipeline: lex, ast,
// asm, run, and dbg subcommands each drive the pipeline up to a
// different stage and print its result.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/rmay/timber/pkg/ast"
	"github.com/rmay/timber/pkg/codegen"
	"github.com/rmay/timber/pkg/lexer"
	"github.com/rmay/timber/pkg/parser"
)

var (
	traceFlag = flag.Bool("trace", false, "show a per-instruction/per-token execution trace on stderr")
)

func usage() {
	fmt.Println("Usage: timber [options] <lex|ast|asm|run|dbg> FILE")
	fmt.Println("\nOptions:")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd, filename := args[0], args[1]
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading file: %v\n", err)
		os.Exit(1)
	}

	var runErr error
	switch cmd {
	case "lex":
		runErr = runLex(string(src))
	case "ast":
		runErr = runAST(string(src))
	case "asm":
		runErr = runAsm(string(src))
	case "run":
		runErr = runRun(string(src))
	case "dbg":
		runErr = runDbg(string(src))
	default:
		usage()
		os.Exit(1)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

func runLex(src string) error {
	toks, err := lexer.Tokenize(src, *traceFlag)
	if err != nil {
		return err
	}
	for _, tok := range toks {
		fmt.Println(tok.String())
	}
	return nil
}

func runAST(src string) error {
	prog, err := parseSrc(src)
	if err != nil {
		return err
	}
	fmt.Print(ast.Print(prog))
	return nil
}

func runAsm(src string) error {
	unit, err := compileSrc(src)
	if err != nil {
		return err
	}
	if err := unit.Link(); err != nil {
		return err
	}
	fmt.Print(unit.String())
	return nil
}

func runRun(src string) error {
	unit, err := compileSrc(src)
	if err != nil {
		return err
	}
	r, err := unit.Runnable()
	if err != nil {
		return err
	}
	m := r.VM(*traceFlag)
	if err := m.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "---runtime error---")
		fmt.Fprintln(os.Stderr, m.DebugInfo())
		return err
	}
	return nil
}

func runDbg(src string) error {
	unit, err := compileSrc(src)
	if err != nil {
		return err
	}
	r, err := unit.Runnable()
	if err != nil {
		return err
	}
	m := r.VM(*traceFlag)
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	return m.Dbg(os.Stdin, os.Stdout, interactive)
}

func parseSrc(src string) (*ast.Program, error) {
	toks, err := lexer.Tokenize(src, *traceFlag)
	if err != nil {
		return nil, err
	}
	return parser.Parse(toks)
}

func compileSrc(src string) (*codegen.Unit, error) {
	prog, err := parseSrc(src)
	if err != nil {
		return nil, err
	}
	return codegen.GenProgram(prog)
}

// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Command probec is the PROBE language compiler.
//
// Usage:
//
//	probec [flags] <source.probe>
//
// Flags:
//
//	-o <output>    Output file (default: stdout)
//	-emit <stage>  Emit intermediate output: tokens, ast, bytecode (default: bytecode)
//	-version       Print version and exit
package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-probe/lang/compiler"
	"github.com/probechain/go-probe/lang/lexer"
	"github.com/probechain/go-probe/lang/parser"
	"github.com/probechain/go-probe/lang/vm"
)

const version = "0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "probec"
	app.Usage = "compile PROBE-script source and inspect each stage"
	app.Version = version
	app.ArgsUsage = "<source.probe>"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "o", Usage: "output file (default: stdout)"},
		cli.StringFlag{Name: "emit", Value: "bytecode", Usage: "emit stage: tokens, ast, bytecode"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: probec [flags] <source.probe>", 1)
	}

	filename := c.Args().Get(0)
	source, err := os.ReadFile(filename)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	out := os.Stdout
	if o := c.String("o"); o != "" {
		f, err := os.Create(o)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		defer f.Close()
		out = f
	}

	switch c.String("emit") {
	case "tokens":
		emitTokens(out, filename, string(source))
	case "ast":
		return emitAST(out, filename, string(source))
	case "bytecode":
		return emitBytecode(out, filename, string(source))
	default:
		return cli.NewExitError(fmt.Sprintf("unknown emit stage: %s", c.String("emit")), 1)
	}
	return nil
}

func emitTokens(out *os.File, filename, source string) {
	l := lexer.New(filename, source)
	for _, tok := range l.Tokenize() {
		fmt.Fprintf(out, "%s\t%s\t%q\n", tok.Pos, tok.Type, tok.Literal)
	}
}

func emitAST(out *os.File, filename, source string) error {
	prog, errs := parser.Parse(filename, source)
	if len(errs) > 0 {
		return cli.NewExitError(errs[0].Error(), 1)
	}
	fmt.Fprintln(out, prog.String())
	return nil
}

// emitBytecode compiles source against a fresh Executable and renders the
// top-level code (and every function literal reachable from it) as a
// tablewriter table: offset, mnemonic, operand.
func emitBytecode(out *os.File, filename, source string) error {
	exec := vm.NewExecutable()
	comp := compiler.New(exec)
	env := vm.InitInterpreter(1<<20, 1024, exec, comp)

	code, err := comp.CompileTopLevel(env, source)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	printDisasm(out, "<top-level>", code)
	for i, fn := range exec.Functions {
		printDisasm(out, fmt.Sprintf("function #%d", i), fn.Code)
	}
	return nil
}

func printDisasm(out *os.File, label string, code []byte) {
	fmt.Fprintf(out, "%s:\n", label)
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"offset", "opcode", "operand"})
	for _, ins := range vm.Disassemble(code) {
		table.Append([]string{fmt.Sprintf("%d", ins.Offset), ins.Op.String(), ins.Operand})
	}
	table.Render()
}

// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Command probe is the PROBE-script REPL host: a line at a time is
// compiled and executed against one persistent Env (ModeInteractive, §6.3),
// so variables and function definitions from earlier lines stay live.
//
// Usage:
//
//	probe [flags]
//
// Flags:
//
//	-config <path>  Load a VMConfig TOML file (default: built-in defaults)
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-probe/integration"
	"github.com/probechain/go-probe/lang/value"
	"github.com/probechain/go-probe/lang/vm"
)

const version = "0.1.0"
const historyFile = ".probe_history"

func main() {
	app := cli.NewApp()
	app.Name = "probe"
	app.Usage = "PROBE-script REPL"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "VMConfig TOML file"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := integration.DefaultVMConfig()
	cfg.Mode = integration.ModeInteractive
	if path := c.String("config"); path != "" {
		loaded, err := integration.LoadVMConfig(path)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		loaded.Mode = integration.ModeInteractive
		cfg = loaded
	}

	eg, err := integration.NewEngine(cfg)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	r := newREPL(eg)
	r.run()
	return nil
}

// repl owns the line editor, color writer, and last-result state for the
// :dump command; a bare isatty check decides whether to engage line
// editing and color at all, so piped input/output stays plain.
type repl struct {
	engine      *integration.Engine
	line        *liner.State
	out         io.Writer
	interactive bool
	errColor    *color.Color
	okColor     *color.Color
	last        value.Val
}

func newREPL(eg *integration.Engine) *repl {
	interactive := isatty.IsTerminal(os.Stdout.Fd())

	r := &repl{
		engine:      eg,
		out:         colorable.NewColorableStdout(),
		interactive: interactive,
		errColor:    color.New(color.FgRed),
		okColor:     color.New(color.FgGreen),
	}

	if interactive {
		r.line = liner.NewLiner()
		r.line.SetCtrlCAborts(true)
		if f, err := os.Open(historyFile); err == nil {
			r.line.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *repl) run() {
	if r.line != nil {
		defer r.saveHistory()
		defer r.line.Close()
	}

	for {
		src, ok := r.readLine("probe> ")
		if !ok {
			return
		}
		if src == "" {
			continue
		}
		if handled := r.handleCommand(src); handled {
			continue
		}
		r.eval(src)
	}
}

func (r *repl) readLine(prompt string) (string, bool) {
	if r.line == nil {
		fmt.Fprint(r.out, prompt)
		var buf [4096]byte
		n, err := os.Stdin.Read(buf[:])
		if err != nil || n == 0 {
			return "", false
		}
		return string(buf[:n]), true
	}

	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", false
	}
	r.line.AppendHistory(input)
	return input, true
}

func (r *repl) handleCommand(src string) bool {
	switch src {
	case ":quit", ":q":
		os.Exit(0)
	case ":dump":
		spew.Fdump(r.out, r.last)
		h := r.engine.Env.Heap()
		fmt.Fprintf(r.out, "heap: %d/%d bytes used\n", h.Used(), h.Size())
		return true
	}
	return false
}

func (r *repl) eval(src string) {
	val, status, errc := r.engine.ExecuteInteractive(src, r.more)
	if errc != vm.ErrNone {
		r.errColor.Fprintf(r.out, "error: %s\n", errc)
		return
	}
	if status == vm.StatusValue {
		r.last = val
		r.okColor.Fprintf(r.out, "%s\n", describe(r.engine, val))
	}
}

// more backs execute_interactive's more_fn (§6.3): prompt again with a
// continuation marker and feed back whatever the user types, or give up on
// EOF/Ctrl-D.
func (r *repl) more() (string, bool) {
	return r.readLine("   ...> ")
}

func (r *repl) saveHistory() {
	f, err := os.Create(historyFile)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.WriteHistory(f)
}

func describe(eg *integration.Engine, v value.Val) string {
	switch {
	case v.IsString():
		return fmt.Sprintf("%q", eg.Env.StringOf(v))
	case v.IsNumber():
		return fmt.Sprintf("%g", v.Num)
	case v.IsBool():
		return fmt.Sprintf("%t", v.Flag)
	case v.IsUndefined():
		return "undefined"
	case v.IsNaN():
		return "NaN"
	default:
		return v.Kind.String()
	}
}

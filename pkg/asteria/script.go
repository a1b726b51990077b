// Package asteria is the embedding facade spec.md §6 calls Simple_Script:
// it strings the lexer, parser, and compiler together, holds the one
// global Executive_Context a loaded program runs against, and exposes
// reload/execute plus the host global-variable interface. This is also
// the only package allowed to depend on both internal/compiler and
// internal/vm, since it supplies the concrete vm.Importer internal/vm
// cannot implement itself without an import cycle (package vm cannot
// import internal/compiler, which itself imports vm).
package asteria

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cwbudde/go-asteria/internal/ast"
	"github.com/cwbudde/go-asteria/internal/compiler"
	"github.com/cwbudde/go-asteria/internal/config"
	"github.com/cwbudde/go-asteria/internal/parser"
	"github.com/cwbudde/go-asteria/internal/source"
	"github.com/cwbudde/go-asteria/internal/vm"
)

// Script is a loaded, runnable Asteria program bound to one global
// context. Reload* replaces the loaded program; Execute runs it.
type Script struct {
	opts config.Options
	ctx  *vm.Context

	file string
	prog *vm.Rod
}

// New creates an empty Script with opts (use config.Default() or
// config.Load for the usual layering) and the optional hook set, and
// installs the module importer on the resulting global context.
func New(opts config.Options, hooks *vm.Hooks) *Script {
	s := &Script{opts: opts, ctx: vm.NewGlobalContext(hooks)}
	s.ctx.SetImporter(&hostImporter{opts: opts, global: s.ctx})
	return s
}

// Reload lowers text (named name) as the loaded program. line is
// currently unused beyond documentation intent — internal/source
// locations are always 1-based from the start of text; a host that
// splices a fragment into a larger document is expected to prefix text
// with blank lines instead, matching how the core models locations.
func (s *Script) Reload(name string, line int, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("asteria: reading %s: %w", name, err)
	}
	return s.compile(name, string(data))
}

// ReloadString lowers src, named name, as the loaded program.
func (s *Script) ReloadString(name, src string) error {
	return s.compile(name, src)
}

// ReloadOneLine lowers src as a single line/expression fragment — the
// REPL's per-line entry point (spec.md §6).
func (s *Script) ReloadOneLine(src string) error {
	stmts, err := parser.ParseOneLine("<input>", src, s.opts)
	if err != nil {
		return err
	}
	return s.lower("<input>", stmts)
}

// ReloadStdin lowers the whole of stdin as the loaded program.
func (s *Script) ReloadStdin() error {
	data, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return fmt.Errorf("asteria: reading stdin: %w", err)
	}
	return s.compile("<stdin>", string(data))
}

// ReloadFile lowers the named file as the loaded program.
func (s *Script) ReloadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("asteria: reading %s: %w", path, err)
	}
	return s.compile(path, string(data))
}

func (s *Script) compile(name, src string) error {
	stmts, err := parser.Parse(name, src, s.opts)
	if err != nil {
		return err
	}
	return s.lower(name, stmts)
}

func (s *Script) lower(name string, stmts []ast.Statement) error {
	rod, err := compiler.NewLowerer(s.opts).LowerProgram(stmts)
	if err != nil {
		return err
	}
	s.file = name
	s.prog = rod
	s.ctx.SetFile(name)
	return nil
}

// Execute runs the loaded program as a variadic callable bound to args,
// returning the Value its top-level `return` (if any) produced, or null
// if it falls off the end. The program's top-level frame sees fresh
// __this/__func/__varg bindings like any ordinary function invocation,
// so `import()`'d modules and the main script share the exact same
// calling convention (spec.md §6).
func (s *Script) Execute(args []vm.Value) (vm.Value, error) {
	if s.prog == nil {
		return vm.Value{}, fmt.Errorf("asteria: no program loaded")
	}
	fn := &vm.Function{Name: s.file, Variadic: true, Body: s.prog, Closure: s.ctx}
	v, rerr := vm.CallFunction(fn, args, source.Location{File: s.file, Line: 1, Column: 1})
	if rerr != nil {
		return vm.Value{}, rerr
	}
	return v, nil
}

// GetGlobal/PutGlobal/EraseGlobal expose the host global-variable
// interface (spec.md §6): the embedder may inspect and mutate globals
// between or across Execute calls.
func (s *Script) GetGlobal(name string) (vm.Value, bool) { return s.ctx.GetGlobal(name) }
func (s *Script) PutGlobal(name string, v vm.Value)      { s.ctx.PutGlobal(name, v) }
func (s *Script) EraseGlobal(name string)                { s.ctx.EraseGlobal(name) }

// Program exposes the loaded rod for disassembly tooling (internal/rod).
func (s *Script) Program() *vm.Rod { return s.prog }

// Options returns the Compiler_Options this Script lowers against.
func (s *Script) Options() config.Options { return s.opts }

// hostImporter implements vm.Importer by recursively lexing, parsing,
// and lowering the target file relative to fromFile, then invoking it
// as a variadic function the same way Execute invokes the top-level
// program — closed over the SAME global context that requested the
// import, so natives and previously-set globals stay visible. The
// circular-import guard lives one layer up, in vm.Context.Import
// (Context.BeginImport/EndImport), before this method is ever called.
type hostImporter struct {
	opts   config.Options
	global *vm.Context
}

func (h *hostImporter) Import(fromFile, path string, args []vm.Value, loc source.Location) (vm.Value, error) {
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(fromFile), path)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return vm.Value{}, fmt.Errorf("import %q: %w", path, err)
	}
	stmts, cerr1 := parser.Parse(resolved, string(data), h.opts)
	if cerr1 != nil {
		return vm.Value{}, cerr1
	}
	rod, cerr2 := compiler.NewLowerer(h.opts).LowerProgram(stmts)
	if cerr2 != nil {
		return vm.Value{}, cerr2
	}
	fn := &vm.Function{Name: resolved, Variadic: true, Body: rod, Closure: h.global}
	v, rerr := vm.CallFunction(fn, args, loc)
	if rerr != nil {
		return vm.Value{}, rerr
	}
	return v, nil
}

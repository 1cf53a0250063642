// Package interp drives internal/vm.Machine the way
// original_source/src/lang/eval.c drives the reference implementation's
// VM: eval_project pushes a new workspace.Project, makes it current,
// locates and evaluates its build file, requires that file's first
// statement be a call to project(), then pops back to the parent
// project on completion (success or failure). eval evaluates one
// compiled vm.Program against the current call-stack frame.
//
// Per spec §4.5/§4.10 the AST-to-bytecode compiler is an external
// collaborator; Compile in this package is a thin seam other code calls
// through. cmd/muon wires in a stub Compiler that always returns an
// error, so no project file is evaluated end-to-end — see DESIGN.md for
// why no real compiler ships here.
package interp

import (
	"context"
	"fmt"

	"muon.build/muon/internal/objheap"
	"muon.build/muon/internal/vm"
	"muon.build/muon/internal/workspace"
)

// Mode mirrors original_source/src/lang/eval.c's enum eval_mode.
type Mode uint8

const (
	ModeNone Mode = 0
	ModeFirst Mode = 1 << iota
	ModeReturnAfterProject
	ModeRelaxedParse
	ModeREPL
)

// Compiler turns an already-parsed AST (opaque to this package — the
// grammar/parser is out of scope per spec §4.10) into a vm.Program.
// cmd/muon supplies a stub implementation whose Compile always returns
// an error; this repo contains no working implementation.
type Compiler interface {
	Compile(ast interface{}, mode Mode) (*vm.Program, error)
}

// Engine bundles a Workspace with the Compiler and builtin-function
// table used to run project files against it.
type Engine struct {
	Workspace *workspace.Workspace
	Compiler  Compiler
	Builtins  map[string]vm.Builtin

	// ICountBudget caps every vm.Machine this Engine creates; 0 means
	// unlimited. DebugBreakpoints and Stepping configure every Machine
	// the same way, since meson.build evaluation is single-threaded
	// cooperative within one workspace (spec §4.5) and a REPL session
	// debugs the whole run, not one frame.
	ICountBudget int64
	Breakpoints  map[string]bool
	Stepping     bool
	OnBreak      func(m *vm.Machine)
}

// NewEngine returns an Engine with an empty breakpoint set.
func NewEngine(ws *workspace.Workspace, c Compiler) *Engine {
	return &Engine{
		Workspace:   ws,
		Compiler:    c,
		Builtins:    map[string]vm.Builtin{},
		Breakpoints: map[string]bool{},
	}
}

// BuildFileLocator resolves the build file for a project directory;
// cmd/muon supplies a filesystem-backed implementation (stat
// meson.build, reject CMakeLists.txt support since it is non-goal in
// this spec). Returns the ast to compile and a display label.
type BuildFileLocator interface {
	Locate(cwd string) (ast interface{}, label string, err error)
}

// EvalProject pushes a new workspace.Project for subprojectName (""
// for the root project), evaluates its build file with ModeFirst set,
// and pops back to the parent project, per
// original_source/src/lang/eval.c's eval_project: make_project, push
// scope, require project() first, eval, pop scope regardless of
// outcome.
func (e *Engine) EvalProject(ctx context.Context, loc BuildFileLocator, subprojectName, cwd, buildDir string) (projectIdx int, res objheap.Handle, err error) {
	prevIdx := indexOf(e.Workspace, e.Workspace.Current())

	p := &workspace.Project{
		Name:       subprojectName,
		Subproject: subprojectName,
		SourceRoot: cwd,
		BuildRoot:  buildDir,
	}
	idx := e.Workspace.PushProject(p)
	defer e.Workspace.PopProject(prevIdx)

	ast, label, err := loc.Locate(cwd)
	if err != nil {
		return idx, 0, fmt.Errorf("interp: locating build file for %q: %w", subprojectName, err)
	}

	e.Workspace.AddRegenerateDep(label)

	res, err = e.Eval(ctx, ast, ModeFirst)
	if err != nil {
		return idx, 0, fmt.Errorf("interp: evaluating %s: %w", label, err)
	}

	return idx, res, nil
}

func indexOf(ws *workspace.Workspace, p *workspace.Project) int {
	for i, proj := range ws.Projects {
		if proj == p {
			return i
		}
	}
	return 0
}

// Eval compiles ast and runs it to completion against e.Workspace's
// heap, per original_source/src/lang/eval.c's eval(): compile with
// mode-derived flags, require project() first when ModeFirst is set,
// push an eval call frame, run, pop.
func (e *Engine) Eval(ctx context.Context, ast interface{}, mode Mode) (objheap.Handle, error) {
	prog, err := e.Compiler.Compile(ast, mode)
	if err != nil {
		return 0, err
	}

	if mode&ModeFirst != 0 && prog.FirstCallName != "project" {
		return 0, fmt.Errorf("interp: first statement is not a call to project()")
	}

	m := vm.New(e.Workspace.Heap, prog)
	for name, fn := range e.Builtins {
		m.Builtins[name] = fn
	}
	m.Debug.ICountBudget = e.ICountBudget
	m.Debug.Stepping = e.Stepping
	m.Debug.OnBreak = e.OnBreak
	for bp := range e.Breakpoints {
		m.Debug.Breakpoints[bp] = true
	}

	e.Workspace.PushFrame(workspace.Frame{Function: "eval"})
	defer e.Workspace.PopFrame()

	return m.Run(ctx)
}

// SetBreakpoint arms file:line across every subsequent Eval call this
// Engine drives.
func (e *Engine) SetBreakpoint(file string, line int) {
	e.Breakpoints[fmt.Sprintf("%s:%d", file, line)] = true
}

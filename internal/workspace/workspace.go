// Package workspace holds the state that spans a single muon invocation:
// the object heap shared by every evaluated project, the project stack
// (index 0 is always the root project), the global option registry, the
// accumulated install targets/scripts, the regenerate-dependency set, the
// compiler check cache persisted across setup/compile runs, and the
// original command line used to reconstruct the REGENERATE_BUILD rule.
//
// Grounded on internal/build.Ctx (the teacher's per-build context struct
// threading PkgDir/SourceDir/BuildDir/Prefix/Jobs through one package
// build) generalized from "one package" to "a tree of subprojects plus
// their shared heap and options", and on the root-level context.go/
// atexit.go (interruptible context, RegisterAtExit/RunAtExit) adapted
// in-place rather than kept as loose top-level helpers.
package workspace

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"muon.build/muon/internal/objheap"
	"muon.build/muon/internal/option"
)

// Project is one project() block's worth of state: its own option
// registry (subproject default overrides layer under the global
// registry, per option.Cascade), the arguments accumulated for its
// targets, and its subproject name ("" for the root project).
type Project struct {
	Name       string
	Subproject string // "" for the root project
	Version    string
	SourceRoot string
	BuildRoot  string

	Options *option.Registry

	GlobalArgs  map[string][]string
	ProjectArgs map[string][]string
	GlobalLink  []string
	ProjectLink []string
}

// CompilerCheckResult is one memoized compiler_check_cache.dat entry:
// the result of a has_header/has_function/sizeof/compiles check, keyed
// by the exact invocation that produced it so a rerun with unchanged
// inputs can skip re-invoking the compiler.
type CompilerCheckResult struct {
	Key    string
	Output string
	Ok     bool
}

// Workspace owns everything that must survive for the whole of one
// `muon setup`/`muon compile`/`muon test`/`muon install` invocation.
type Workspace struct {
	Heap *objheap.Heap

	Projects []*Project // index 0 is the root project
	current  int

	GlobalOptions *option.Registry

	InstallTargets []InstallTargetRef
	InstallScripts []InstallScriptRef
	PostconfScripts []string

	// RegenerateDeps accumulates every file read while evaluating
	// project files (meson.build-equivalents, included sub-files), so
	// the REGENERATE_BUILD rule's input list stays exhaustive.
	RegenerateDeps map[string]bool

	// CompilerCheckCache is loaded from and persisted back to
	// compiler_check_cache.dat (§4.11) across setup/compile runs.
	CompilerCheckCache map[string]CompilerCheckResult

	Argv       []string
	SourceRoot string
	BuildRoot  string

	// callStack records the chain of eval_project/eval frames
	// currently executing, for backtraces and recursive-subdir
	// detection; pushed/popped by PushFrame/PopFrame.
	callStack []Frame

	mu sync.Mutex

	atExitMu sync.Mutex
	atExit   []func() error
	closed   bool
}

// InstallTargetRef and InstallScriptRef index into the evaluated
// project tree; the full Target/Script values live in
// internal/installrunner once buildgraph preparation resolves paths.
type InstallTargetRef struct {
	Project int
	Index   int
}

type InstallScriptRef struct {
	Project int
	Index   int
}

// Frame is one call-stack entry: a function or method call site within
// an evaluated project, identified by project index and source
// location (file/line supplied by the interpreter, not the VM, since
// file/line belong to the already-parsed AST).
type Frame struct {
	Project  int
	Function string
	File     string
	Line     int
}

// New returns an empty Workspace rooted at sourceRoot/buildRoot, with a
// single root Project already pushed.
func New(argv []string, sourceRoot, buildRoot string) *Workspace {
	w := &Workspace{
		Heap:               objheap.New(),
		GlobalOptions:      option.NewRegistry(),
		RegenerateDeps:     map[string]bool{},
		CompilerCheckCache: map[string]CompilerCheckResult{},
		Argv:               argv,
		SourceRoot:         sourceRoot,
		BuildRoot:          buildRoot,
	}
	root := &Project{
		Name:        "",
		SourceRoot:  sourceRoot,
		BuildRoot:   buildRoot,
		Options:     option.NewRegistry(),
		GlobalArgs:  map[string][]string{},
		ProjectArgs: map[string][]string{},
	}
	w.Projects = append(w.Projects, root)
	return w
}

// PushProject enters a new project() scope (root project or
// subproject), making it Current until PopProject is called. Mirrors
// original_source/src/eval.c's eval_project: push, set current, require
// the pushed project's first statement to be a project() call before
// any other evaluation proceeds (enforced by the interpreter, not here).
func (w *Workspace) PushProject(p *Project) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Projects = append(w.Projects, p)
	idx := len(w.Projects) - 1
	w.current = idx
	return idx
}

// PopProject restores the previous Current project. Panics if prev is
// not a valid project index, since that indicates a VM/interpreter bug
// rather than a recoverable user error; it does not check that a
// matching PushProject happened.
func (w *Workspace) PopProject(prev int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev < 0 || prev >= len(w.Projects) {
		panic(fmt.Sprintf("workspace: PopProject: invalid previous index %d", prev))
	}
	w.current = prev
}

// Current returns the project currently being evaluated.
func (w *Workspace) Current() *Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Projects[w.current]
}

// Root returns the top-level project (index 0).
func (w *Workspace) Root() *Project {
	return w.Projects[0]
}

// PushFrame/PopFrame maintain the evaluation call stack for backtraces.
func (w *Workspace) PushFrame(f Frame) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callStack = append(w.callStack, f)
}

func (w *Workspace) PopFrame() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.callStack) == 0 {
		panic("workspace: PopFrame called with empty call stack")
	}
	w.callStack = w.callStack[:len(w.callStack)-1]
}

// Backtrace returns a snapshot of the current call stack, innermost
// frame last.
func (w *Workspace) Backtrace() []Frame {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Frame, len(w.callStack))
	copy(out, w.callStack)
	return out
}

// AddRegenerateDep records path as a file the build must be
// regenerated from if it changes.
func (w *Workspace) AddRegenerateDep(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.RegenerateDeps[path] = true
}

// RegenerateManifest returns the accumulated regenerate-dep set as a
// deterministic slice, the way ninjawriter.RegenerateSpec.Inputs wants
// it (see cmd/muon's wiring of Workspace into ninjawriter.Plan).
func (w *Workspace) RegenerateManifest() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.RegenerateDeps))
	for p := range w.RegenerateDeps {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// RegisterAtExit queues fn to run when RunAtExit is called (setup and
// install completion hooks: writing compiler_check_cache.dat, flushing
// logs). Adapted from the teacher's root-level atexit.go, scoped to one
// Workspace instead of a single process-global slice so tests can run
// concurrent Workspaces without cross-talk.
func (w *Workspace) RegisterAtExit(fn func() error) {
	w.atExitMu.Lock()
	defer w.atExitMu.Unlock()
	if w.closed {
		panic("workspace: RegisterAtExit must not be called from an atExit func")
	}
	w.atExit = append(w.atExit, fn)
}

// RunAtExit runs every registered hook in registration order, returning
// the first error encountered (later hooks still do not run, matching
// the teacher's atexit.go behavior).
func (w *Workspace) RunAtExit() error {
	w.atExitMu.Lock()
	w.closed = true
	fns := w.atExit
	w.atExitMu.Unlock()
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// InterruptibleContext returns a context canceled on SIGINT/SIGTERM,
// with RunAtExit invoked before the process exits so compiler-check
// caches and partial install state are flushed on Ctrl-C. Adapted from
// the teacher's root-level context.go (InterruptibleContext) and
// internal/oninterrupt (which the teacher left with an explicit TODO
// to replace signal-driven os.Exit calls with context cancellation —
// this resolves that TODO by cancelling ctx instead of calling os.Exit
// directly).
func (w *Workspace) InterruptibleContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			signal.Stop(sig)
			if err := w.RunAtExit(); err != nil {
				fmt.Fprintf(os.Stderr, "muon: at-exit hook failed during interrupt: %v\n", err)
			}
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Package vm implements the bytecode machine that executes a compiled
// Meson-language program: an explicit value stack plus a call-frame
// stack, single-threaded cooperative execution (suspension only at
// function-call boundaries), and debugger hooks (breakpoints by
// file+line, step mode, an instruction-count budget, backtraces).
//
// Per spec §4.5/§4.10, AST-to-bytecode compilation is an external
// collaborator — the grammar/parser is explicitly out of scope. This
// package only consumes an already-compiled Program; internal/interp
// drives eval_project/eval around it the way
// original_source/src/lang/eval.c does.
//
// The op table and frame layout have no ready-made equivalent in the
// example pack, so they are newly designed here; the dispatch loop's
// shape (a big switch over an opcode, a flat value stack, explicit
// frame push/pop) is the conventional register-free bytecode VM
// structure, grounded in control flow on the teacher's step-by-step
// []*pb.BuildStep execution in internal/build/build.go (buildctx.build
// runs a fixed instruction sequence one step at a time, checking for
// cancellation between steps the same way this VM checks its icount
// budget and context between opcodes).
package vm

import (
	"context"
	"fmt"

	"muon.build/muon/internal/objheap"
)

// Op is a bytecode opcode.
type Op uint8

const (
	OpNop Op = iota
	OpPushConst
	OpPushNull
	OpPop
	OpDup
	OpLoadLocal
	OpStoreLocal
	OpLoadGlobal
	OpStoreGlobal
	OpMakeArray  // pop A values, push one array
	OpArrayPush  // pop value, pop array, push array with value appended
	OpMakeDict   // pop A (key,value) pairs, push one dict
	OpDictSet    // pop value, pop key, pop dict, push dict with entry set
	OpIndex      // pop index, pop container, push container[index]
	OpGetAttr    // pop object, push object's attribute named by Const[A] (method/member resolution is host-provided)
	OpCallBuiltin // A = name constant index, B = argc; pops argc args (+kwargs dict if HasKwargs), pushes one result
	OpCallFunc   // A = function entry instruction index, B = argc
	OpReturn
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpNot
	OpHalt
)

func (o Op) String() string {
	names := [...]string{
		"nop", "push_const", "push_null", "pop", "dup",
		"load_local", "store_local", "load_global", "store_global",
		"make_array", "array_push", "make_dict", "dict_set",
		"index", "get_attr", "call_builtin", "call_func", "return",
		"jump", "jump_if_false", "jump_if_true", "not", "halt",
	}
	if int(o) < len(names) {
		return names[o]
	}
	return fmt.Sprintf("op(%d)", o)
}

// Instruction is one bytecode instruction. A and B are opcode-specific
// operands (constant index, jump target, argument count). Line/File
// index into the compiled Program's debug tables, used for breakpoints,
// backtraces, and runtime error locations.
type Instruction struct {
	Op      Op
	A, B    int
	HasKwargs bool
	Line    int
	FileIdx int
}

// Program is a compiled unit: a flat instruction stream, a constant
// pool of heap handles, and the source file table backing
// Instruction.FileIdx. FirstCallName is set by the compiler to the
// identifier of the first top-level call (e.g. "project"), letting
// interp.Eval enforce "first statement is a call to project()"
// (original_source/src/lang/eval.c's ensure_project_is_first_statement)
// without this package needing to know about the AST at all.
type Program struct {
	Instructions []Instruction
	Consts       []objheap.Handle
	Files        []string
	Entry        int
	FirstCallName string
}

// Frame is one call-frame: the instruction pointer to resume at on
// return, the function name (for backtraces), and a local-variable
// scope. Scopes nest lexically in the source language but are flattened
// to one map per call frame here, since meson.build scoping is
// block-local-shadowing-by-name rather than true block scoping.
type Frame struct {
	ReturnIP int
	Function string
	Locals   map[string]objheap.Handle
}

// Builtin is a host-implemented function reachable from bytecode via
// OpCallBuiltin — the hook point where functions/default/*-equivalent
// target-declaration builtins (executable(), dependency(), ...) attach
// to internal/buildgraph, internal/depresolver, and internal/workspace.
type Builtin func(m *Machine, args []objheap.Handle, kwargs objheap.Handle) (objheap.Handle, error)

// DebugState holds the debugger hooks spec §4.5 requires: breakpoints
// keyed by "file:line", single-step mode, and an instruction-count
// budget so a runaway or hostile script cannot hang the host process.
type DebugState struct {
	Breakpoints map[string]bool
	Stepping    bool
	ICount      int64
	ICountBudget int64 // 0 means unlimited
	OnBreak     func(m *Machine)
}

// Machine is one executing instance of a Program against a shared heap.
type Machine struct {
	Heap *objheap.Heap

	Program *Program
	IP      int

	Stack   []objheap.Handle
	Frames  []Frame
	Globals map[string]objheap.Handle
	Builtins map[string]Builtin

	Debug DebugState

	halted bool
	err    error
}

// New returns a Machine ready to execute p against heap h.
func New(h *objheap.Heap, p *Program) *Machine {
	return &Machine{
		Heap:     h,
		Program:  p,
		IP:       p.Entry,
		Globals:  map[string]objheap.Handle{},
		Builtins: map[string]Builtin{},
		Debug:    DebugState{Breakpoints: map[string]bool{}},
	}
}

func (m *Machine) push(h objheap.Handle) { m.Stack = append(m.Stack, h) }

func (m *Machine) pop() objheap.Handle {
	n := len(m.Stack)
	v := m.Stack[n-1]
	m.Stack = m.Stack[:n-1]
	return v
}

func (m *Machine) currentFrame() *Frame {
	if len(m.Frames) == 0 {
		return nil
	}
	return &m.Frames[len(m.Frames)-1]
}

// SetBreakpoint arms a breakpoint at file:line; the dispatch loop calls
// Debug.OnBreak the next time IP maps to that location.
func (m *Machine) SetBreakpoint(file string, line int) {
	m.Debug.Breakpoints[fmt.Sprintf("%s:%d", file, line)] = true
}

// Backtrace returns the current call stack, innermost frame last,
// including the currently-executing instruction's location as the
// final synthetic entry (mirrors original_source/src/lang/eval.c's
// repl_cmd_backtrace, which appends the live IP as one extra frame).
func (m *Machine) Backtrace() []string {
	var out []string
	for _, f := range m.Frames {
		out = append(out, f.Function)
	}
	if m.IP < len(m.Program.Instructions) {
		inst := m.Program.Instructions[m.IP]
		out = append(out, fmt.Sprintf("<ip %s:%d>", m.fileAt(inst.FileIdx), inst.Line))
	}
	return out
}

func (m *Machine) fileAt(idx int) string {
	if idx >= 0 && idx < len(m.Program.Files) {
		return m.Program.Files[idx]
	}
	return "<unknown>"
}

// Run executes until OpHalt, a top-level OpReturn, an error, or ctx
// cancellation, returning the final stack top (or a null handle if the
// stack is empty).
func (m *Machine) Run(ctx context.Context) (objheap.Handle, error) {
	for !m.halted {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if m.Debug.ICountBudget > 0 && m.Debug.ICount >= m.Debug.ICountBudget {
			return 0, fmt.Errorf("vm: instruction budget of %d exceeded", m.Debug.ICountBudget)
		}
		m.Debug.ICount++

		if m.IP < 0 || m.IP >= len(m.Program.Instructions) {
			return 0, fmt.Errorf("vm: instruction pointer %d out of range", m.IP)
		}
		inst := m.Program.Instructions[m.IP]

		if m.Debug.Stepping || m.Debug.Breakpoints[fmt.Sprintf("%s:%d", m.fileAt(inst.FileIdx), inst.Line)] {
			if m.Debug.OnBreak != nil {
				m.Debug.OnBreak(m)
			}
		}

		if err := m.step(ctx, inst); err != nil {
			return 0, err
		}
	}
	if m.err != nil {
		return 0, m.err
	}
	if len(m.Stack) == 0 {
		return 0, nil
	}
	return m.Stack[len(m.Stack)-1], nil
}

func (m *Machine) step(ctx context.Context, inst Instruction) error {
	h := m.Heap
	switch inst.Op {
	case OpNop:
		m.IP++
	case OpPushConst:
		m.push(m.Program.Consts[inst.A])
		m.IP++
	case OpPushNull:
		m.push(0)
		m.IP++
	case OpPop:
		m.pop()
		m.IP++
	case OpDup:
		m.push(m.Stack[len(m.Stack)-1])
		m.IP++
	case OpLoadLocal:
		f := m.currentFrame()
		name, _ := h.GetString(m.Program.Consts[inst.A])
		if f == nil {
			return fmt.Errorf("vm: load_local %q outside any call frame", name)
		}
		m.push(f.Locals[name])
		m.IP++
	case OpStoreLocal:
		f := m.currentFrame()
		name, _ := h.GetString(m.Program.Consts[inst.A])
		if f == nil {
			return fmt.Errorf("vm: store_local %q outside any call frame", name)
		}
		if f.Locals == nil {
			f.Locals = map[string]objheap.Handle{}
		}
		f.Locals[name] = m.pop()
		m.IP++
	case OpLoadGlobal:
		name, _ := h.GetString(m.Program.Consts[inst.A])
		m.push(m.Globals[name])
		m.IP++
	case OpStoreGlobal:
		name, _ := h.GetString(m.Program.Consts[inst.A])
		m.Globals[name] = m.pop()
		m.IP++
	case OpMakeArray:
		arr := h.MakeArray()
		items := make([]objheap.Handle, inst.A)
		for i := inst.A - 1; i >= 0; i-- {
			items[i] = m.pop()
		}
		for _, it := range items {
			h.ArrayPush(arr, it)
		}
		m.push(arr)
		m.IP++
	case OpArrayPush:
		v := m.pop()
		arr := m.pop()
		h.ArrayPush(arr, v)
		m.push(arr)
		m.IP++
	case OpMakeDict:
		d := h.MakeDict()
		pairs := make([][2]objheap.Handle, inst.A)
		for i := inst.A - 1; i >= 0; i-- {
			v := m.pop()
			k := m.pop()
			pairs[i] = [2]objheap.Handle{k, v}
		}
		for _, p := range pairs {
			h.DictSet(d, p[0], p[1])
		}
		m.push(d)
		m.IP++
	case OpDictSet:
		v := m.pop()
		k := m.pop()
		d := m.pop()
		h.DictSet(d, k, v)
		m.push(d)
		m.IP++
	case OpIndex:
		idx := m.pop()
		container := m.pop()
		switch h.TypeOf(container) {
		case objheap.TypeArray:
			n, _ := h.GetNumber(idx)
			v, ok := h.ArrayGet(container, int(n))
			if !ok {
				return fmt.Errorf("vm: array index %d out of range", n)
			}
			m.push(v)
		case objheap.TypeDict:
			v, ok := h.DictGet(container, idx)
			if !ok {
				return fmt.Errorf("vm: dict has no such key")
			}
			m.push(v)
		default:
			return fmt.Errorf("vm: cannot index value of type %v", h.TypeOf(container))
		}
		m.IP++
	case OpGetAttr:
		name, _ := h.GetString(m.Program.Consts[inst.A])
		obj := m.pop()
		v, ok := h.DictGetStr(obj, name)
		if !ok {
			return fmt.Errorf("vm: no attribute %q", name)
		}
		m.push(v)
		m.IP++
	case OpCallBuiltin:
		name, _ := h.GetString(m.Program.Consts[inst.A])
		fn, ok := m.Builtins[name]
		if !ok {
			return fmt.Errorf("vm: no such builtin function %q", name)
		}
		var kwargs objheap.Handle
		if inst.HasKwargs {
			kwargs = m.pop()
		}
		args := make([]objheap.Handle, inst.B)
		for i := inst.B - 1; i >= 0; i-- {
			args[i] = m.pop()
		}
		res, err := fn(m, args, kwargs)
		if err != nil {
			return fmt.Errorf("vm: %s: %w", name, err)
		}
		m.push(res)
		m.IP++
	case OpCallFunc:
		args := make([]objheap.Handle, inst.B)
		for i := inst.B - 1; i >= 0; i-- {
			args[i] = m.pop()
		}
		locals := map[string]objheap.Handle{}
		for i, a := range args {
			locals[fmt.Sprintf("arg%d", i)] = a
		}
		m.Frames = append(m.Frames, Frame{ReturnIP: m.IP + 1, Locals: locals})
		m.IP = inst.A
	case OpReturn:
		if len(m.Frames) == 0 {
			m.halted = true
			return nil
		}
		f := m.Frames[len(m.Frames)-1]
		m.Frames = m.Frames[:len(m.Frames)-1]
		m.IP = f.ReturnIP
	case OpJump:
		m.IP = inst.A
	case OpJumpIfFalse:
		v := m.pop()
		ok, _ := h.GetBool(v)
		if !ok {
			m.IP = inst.A
		} else {
			m.IP++
		}
	case OpJumpIfTrue:
		v := m.pop()
		ok, _ := h.GetBool(v)
		if ok {
			m.IP = inst.A
		} else {
			m.IP++
		}
	case OpNot:
		v := m.pop()
		ok, _ := h.GetBool(v)
		m.push(h.MakeBool(!ok))
		m.IP++
	case OpHalt:
		m.halted = true
	default:
		return fmt.Errorf("vm: unknown opcode %v", inst.Op)
	}
	return nil
}

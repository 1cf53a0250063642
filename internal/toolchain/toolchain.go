// Package toolchain models compilers, linkers, and static linkers as a
// set of named argument-generating handlers rather than ad hoc flag
// strings scattered through the build-graph preparer. A handler (e.g.
// "include", "warning_lvl", "soname") is looked up first in a per-target
// override dictionary, then falls back to the compiler/linker's built-in
// implementation for its Kind. Every caller goes through Invoke; nothing
// downstream of this package constructs a raw compiler flag itself,
// which is what makes adding another compiler kind additive rather than
// invasive.
//
// Grounded on the teacher's per-builder-kind dispatch in cmd/distri's
// buildc.go/buildcmake.go/buildmeson.go/buildgo.go — distri picks a
// different fixed argv template per build-system kind the way this
// package picks a different handler table per compiler Kind; the
// override-dict-first lookup generalizes that fixed-template dispatch
// into something a project can selectively override per target.
package toolchain

import "fmt"

// Kind identifies a compiler/linker family. Linkers don't have their own
// Kind: a compiler's LinkerKind is derived from its own Kind (gcc/clang
// drive ld-compatible linkers, msvc/clang-cl drive link.exe-compatible
// ones).
type Kind int

const (
	KindGCC Kind = iota
	KindClang
	KindMSVC
	KindClangCL
)

func (k Kind) String() string {
	switch k {
	case KindGCC:
		return "gcc"
	case KindClang:
		return "clang"
	case KindMSVC:
		return "msvc"
	case KindClangCL:
		return "clang-cl"
	default:
		return "unknown"
	}
}

// msvcFamily reports whether k uses MSVC-style argument syntax
// (/flag rather than -flag) for both compiling and linking.
func (k Kind) msvcFamily() bool {
	return k == KindMSVC || k == KindClangCL
}

// Machine distinguishes the host (running the compiler/build system) from
// the build machine (the target of a cross build), matching Meson's
// host/build machine split.
type Machine int

const (
	MachineHost Machine = iota
	MachineBuild
)

// Handler produces an argument-list fragment. Every handler, regardless
// of what its spec name suggests it conceptually takes (a directory, an
// optimization level, a boolean), is modeled uniformly as a variadic
// string function — handler implementations parse their own positional
// arguments, and Invoke only deals in strings, not a grab-bag of
// interface{} payloads that downstream callers would have to type-assert.
type Handler func(args ...string) []string

// Compiler is a configured compiler for one language, matching spec
// §4.7's compiler handle: argv prefixes for itself and its companion
// linkers, identity metadata, and three override dictionaries.
type Compiler struct {
	Language            string
	Machine             Machine
	Kind                Kind
	Command             []string
	LinkerCommand       []string
	StaticLinkerCommand []string
	Version             string
	LibDirs             []string
	Triple              string

	CompilerOverrides     map[string]Handler
	LinkerOverrides       map[string]Handler
	StaticLinkerOverrides map[string]Handler
}

// Invoke runs the named compiler handler: an override if the project
// registered one for this target, otherwise the built-in for c.Kind.
func (c *Compiler) Invoke(name string, args ...string) ([]string, error) {
	if h, ok := c.CompilerOverrides[name]; ok {
		return h(args...), nil
	}
	h, ok := compilerBuiltins[c.Kind][name]
	if !ok {
		return nil, fmt.Errorf("toolchain: no %q compiler handler for %s", name, c.Kind)
	}
	return h(args...), nil
}

// InvokeLinker runs the named linker handler the same way Invoke does
// for compiler handlers.
func (c *Compiler) InvokeLinker(name string, args ...string) ([]string, error) {
	if h, ok := c.LinkerOverrides[name]; ok {
		return h(args...), nil
	}
	h, ok := linkerBuiltins[c.Kind][name]
	if !ok {
		return nil, fmt.Errorf("toolchain: no %q linker handler for %s", name, c.Kind)
	}
	return h(args...), nil
}

// InvokeStaticLinker runs the named static-linker (archiver) handler.
func (c *Compiler) InvokeStaticLinker(name string, args ...string) ([]string, error) {
	if h, ok := c.StaticLinkerOverrides[name]; ok {
		return h(args...), nil
	}
	h, ok := staticLinkerBuiltins[c.Kind][name]
	if !ok {
		return nil, fmt.Errorf("toolchain: no %q static-linker handler for %s", name, c.Kind)
	}
	return h(args...), nil
}

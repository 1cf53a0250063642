// Package objheap implements the tagged-variant object heap that backs every
// value the interpreter and build-graph generator manipulate: strings,
// arrays, dicts, and the various typed build objects (targets, dependencies,
// options, …). All cross-component data exchange happens through Handle
// values indexed into a Heap, never through direct pointers, so that a Heap
// can be serialized, cloned across workspaces, or truncated back to a
// high-water mark without chasing live references.
package objheap

import "fmt"

// Handle is a 32-bit reference into a Heap's object table. The zero Handle
// is reserved: it never refers to a live object.
type Handle uint32

// Null is the reserved handle that never refers to a live object.
const Null Handle = 0

// Type tags an object's payload kind. TypeOf(h) never changes for the
// lifetime of h.
type Type uint8

const (
	TypeNull Type = iota
	TypeBool
	TypeNumber
	TypeString
	TypeArray
	TypeDict
	TypeFile
	TypeBuildTarget
	TypeCustomTarget
	TypeAliasTarget
	TypeBothLibs
	TypeCompiler
	TypeDependency
	TypeExternalProgram
	TypeIncludeDirectory
	TypeOption
	TypeSubproject
	TypeRunResult
	TypeEnvironment
	TypeConfigurationData
	TypeSourceSet
	TypeMachine
	TypeGenerator
	TypeModule
	TypeTypeInfo
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeDict:
		return "dict"
	case TypeFile:
		return "file"
	case TypeBuildTarget:
		return "build_target"
	case TypeCustomTarget:
		return "custom_target"
	case TypeAliasTarget:
		return "alias_target"
	case TypeBothLibs:
		return "both_libs"
	case TypeCompiler:
		return "compiler"
	case TypeDependency:
		return "dependency"
	case TypeExternalProgram:
		return "external_program"
	case TypeIncludeDirectory:
		return "include_directory"
	case TypeOption:
		return "option"
	case TypeSubproject:
		return "subproject"
	case TypeRunResult:
		return "run_result"
	case TypeEnvironment:
		return "environment"
	case TypeConfigurationData:
		return "configuration_data"
	case TypeSourceSet:
		return "source_set"
	case TypeMachine:
		return "machine"
	case TypeGenerator:
		return "generator"
	case TypeModule:
		return "module"
	case TypeTypeInfo:
		return "typeinfo"
	default:
		return fmt.Sprintf("type(%d)", t)
	}
}

// object is one entry in the heap's object table: a type tag plus an
// opaque payload. The payload's dynamic type is determined entirely by
// tag, never inspected independent of it.
type object struct {
	tag     Type
	payload interface{}
}

// Heap is a process-wide (or workspace-wide) object table. It owns every
// Handle-addressable value; there are no cross-heap references except
// through Clone.
type Heap struct {
	objects []object // index 0 is Null and is never used
	mark    []int    // stack of high-water marks, see Mark/Release
}

// New returns an empty Heap with the Null handle already reserved.
func New() *Heap {
	h := &Heap{objects: make([]object, 1, 64)}
	return h
}

func (h *Heap) alloc(tag Type, payload interface{}) Handle {
	h.objects = append(h.objects, object{tag: tag, payload: payload})
	return Handle(len(h.objects) - 1)
}

// TypeOf returns the type tag of h. It is O(1) and never changes across
// the lifetime of h.
func (h *Heap) TypeOf(handle Handle) Type {
	if int(handle) >= len(h.objects) {
		return TypeNull
	}
	return h.objects[handle].tag
}

func (h *Heap) get(handle Handle, want Type) (interface{}, bool) {
	if int(handle) >= len(h.objects) || handle == Null {
		return nil, false
	}
	o := h.objects[handle]
	if o.tag != want {
		return nil, false
	}
	return o.payload, true
}

// Mark records the heap's current high-water mark. A backend can snapshot
// the mark before preparing one target's intermediate strings/arrays, then
// call Release to truncate the heap back, reclaiming everything allocated
// since.
func (h *Heap) Mark() {
	h.mark = append(h.mark, len(h.objects))
}

// Release truncates the heap back to the most recent Mark. Handles
// allocated since that Mark become invalid; callers must not retain them
// past Release.
func (h *Heap) Release() {
	n := len(h.mark)
	if n == 0 {
		return
	}
	top := h.mark[n-1]
	h.mark = h.mark[:n-1]
	if top < len(h.objects) {
		h.objects = h.objects[:top]
	}
}

// Len reports the number of live (non-null) handles, for diagnostics and
// tests.
func (h *Heap) Len() int {
	return len(h.objects) - 1
}

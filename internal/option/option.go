// Package option implements muon's typed build-option registry: values
// with a source-precedence ordering (default < default_file <
// subproject_default < environment < commandline < override), the fixed
// set of reserved compiler-option names, and the composite `buildtype`
// option.
//
// The precedence-ordered, layered-override shape is grounded on Please's
// configuration loader (src/core/config.go): defaults are established
// first, then successive config files are read into the same struct so
// later sources silently win, with explicit errors reserved for directly
// conflicting settings. muon's option system generalizes that file-only
// layering into six sources plus a hard no-silent-overwrite rule for
// equal-precedence conflicting writes (the command line must not let two
// `-D` flags for the same option silently pick one).
package option

import (
	"fmt"

	"golang.org/x/exp/maps"
)

// Source ranks where an option's current value came from. Higher values
// win when a new write's source differs from the option's current
// source; equal sources require equal values or the write is rejected.
type Source int

const (
	SourceDefault Source = iota
	SourceDefaultFile
	SourceSubprojectDefault
	SourceEnvironment
	SourceCommandline
	SourceOverride
)

func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceDefaultFile:
		return "default_file"
	case SourceSubprojectDefault:
		return "subproject_default"
	case SourceEnvironment:
		return "environment"
	case SourceCommandline:
		return "commandline"
	case SourceOverride:
		return "override"
	default:
		return "unknown"
	}
}

// Type is an option's value kind.
type Type int

const (
	TypeString Type = iota
	TypeInteger
	TypeBool
	TypeArray
	TypeFeature
	TypeCombo
)

// Option is a single named build option.
type Option struct {
	Name        string
	Type        Type
	Value       interface{}
	Default     interface{}
	Source      Source
	Choices     []string // for TypeCombo / TypeFeature
	Min, Max    *int64   // for TypeInteger
	Description string
}

// Registry holds a project's (or the global) option set, keyed by name.
type Registry struct {
	opts map[string]*Option
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{opts: make(map[string]*Option)}
}

// Define registers opt at its declared default value and SourceDefault.
// Re-defining an already-present name is an error: declarations happen
// once, at project setup, before any value overrides are applied.
func (r *Registry) Define(opt Option) error {
	if _, exists := r.opts[opt.Name]; exists {
		return fmt.Errorf("option: %q already defined", opt.Name)
	}
	o := opt
	o.Value = opt.Default
	o.Source = SourceDefault
	r.opts[opt.Name] = &o
	return nil
}

// Get returns the current value and true if name is defined.
func (r *Registry) Get(name string) (interface{}, bool) {
	o, ok := r.opts[name]
	if !ok {
		return nil, false
	}
	return o.Value, true
}

// Lookup returns the full Option record for name.
func (r *Registry) Lookup(name string) (Option, bool) {
	o, ok := r.opts[name]
	if !ok {
		return Option{}, false
	}
	return *o, true
}

// Set writes value to name from source. The write is accepted iff
// source >= the option's current source. A write at the option's current
// source with an identical value is a silent no-op; a write at the same
// source with a different value is rejected (this is what makes
// `-Dfoo=y -Dfoo=z` on one command line an error while `-Dfoo=y -Dfoo=y`
// is accepted).
func (r *Registry) Set(name string, value interface{}, source Source) error {
	o, ok := r.opts[name]
	if !ok {
		return fmt.Errorf("option: unknown option %q", name)
	}
	switch {
	case source > o.Source:
		o.Value = value
		o.Source = source
		return nil
	case source == o.Source:
		if o.Value == value {
			return nil
		}
		return fmt.Errorf("option: conflicting values for %q from source %s: %v vs %v", name, source, o.Value, value)
	default:
		// Lower-precedence write loses silently: e.g. a subproject default
		// applied after the command line already set the option.
		return nil
	}
}

// Names returns every defined option name, for iteration in tests and
// diagnostics; order is unspecified.
func (r *Registry) Names() []string {
	return maps.Keys(r.opts)
}

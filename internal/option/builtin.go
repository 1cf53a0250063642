package option

// ReservedCompilerOptions lists the option names that carry fixed types
// and choice sets rather than being declared freely by a project's
// meson_options.txt equivalent. A project attempting to redeclare one of
// these with a different type is a user error.
var ReservedCompilerOptions = map[string]Type{
	"c_std":           TypeCombo,
	"cpp_std":         TypeCombo,
	"c_args":          TypeArray,
	"c_link_args":     TypeArray,
	"cpp_args":        TypeArray,
	"cpp_link_args":   TypeArray,
	"warning_level":   TypeCombo,
	"werror":          TypeBool,
	"b_sanitize":      TypeCombo,
	"b_lto":           TypeBool,
	"b_coverage":      TypeBool,
	"b_ndebug":        TypeCombo,
	"b_vscrt":         TypeCombo,
	"b_pgo":           TypeCombo,
	"b_colorout":      TypeCombo,
	"buildtype":       TypeCombo,
	"optimization":    TypeCombo,
	"debug":           TypeBool,
	"prefer_static":   TypeBool,
	"default_library": TypeCombo,
}

// BuildtypeChoices are the recognized values of the composite `buildtype`
// option. `custom`, and any value outside this set, leaves
// `optimization`/`debug` to be read directly instead of being derived
// from buildtype.
var BuildtypeChoices = []string{"plain", "debug", "debugoptimized", "release", "minsize", "custom"}

// OptDebugPair is the (optimization, debug) pair a recognized buildtype
// value dictates.
type OptDebugPair struct {
	Optimization string
	Debug        bool
}

var buildtypeDerived = map[string]OptDebugPair{
	"plain":          {Optimization: "0", Debug: false},
	"debug":          {Optimization: "0", Debug: true},
	"debugoptimized": {Optimization: "2", Debug: true},
	"release":        {Optimization: "3", Debug: false},
	"minsize":        {Optimization: "s", Debug: false},
}

// ResolveOptimizationDebug implements buildtype's composite behavior: if
// buildtype is one of the five recognized non-custom values, it dictates
// the effective (optimization, debug) pair; otherwise the caller's own
// `optimization`/`debug` option values are authoritative (ok is false,
// telling the caller to fall back to reading those options directly).
func ResolveOptimizationDebug(buildtype string) (pair OptDebugPair, ok bool) {
	pair, ok = buildtypeDerived[buildtype]
	return pair, ok
}

// Cascade resolves an option's effective value by consulting, in order, a
// target-level override map, a project-level Registry, then a
// global-level Registry — the precedence spec §4.6's `get` describes:
// target override options → project options → global options.
func Cascade(name string, targetOverrides map[string]interface{}, project, global *Registry) (interface{}, bool) {
	if targetOverrides != nil {
		if v, ok := targetOverrides[name]; ok {
			return v, true
		}
	}
	if project != nil {
		if v, ok := project.Get(name); ok {
			return v, true
		}
	}
	if global != nil {
		if v, ok := global.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

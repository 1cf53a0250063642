// Package buildgraph implements prepare_all_targets/setup_linker_args: the
// step-ordered assembly of a build target's final per-language compiler
// argument list and, for non-static-library targets, its linker argument
// list, out of the option/toolchain/depresolver layers.
//
// Grounded on internal/build/build.go's per-target flag accumulation
// (cflags/ldflags built up across a fixed step sequence) and
// internal/build/resolve.go's dependency-aggregation dedup walk.
package buildgraph

import (
	"os"

	"muon.build/muon/internal/depresolver"
	"muon.build/muon/internal/option"
	"muon.build/muon/internal/pathutil"
	"muon.build/muon/internal/toolchain"
)

// Kind is a build target's output kind.
type Kind int

const (
	KindExecutable Kind = iota
	KindStaticLibrary
	KindSharedLibrary
	KindSharedModule
)

// IncludeDir is one entry of a target's include path, distinguishing the
// `-I`/`-isystem` handlers it must go through.
type IncludeDir struct {
	Path   string
	System bool
}

// Target is the plain-data projection of a build_target/both_libs object
// that buildgraph consumes; the interpreter is responsible for filling one
// of these in from its heap-resident target object before calling Prepare.
type Target struct {
	Name              string
	Kind              Kind
	GeneratedInclude  bool // private generated-header directory must be created and prepended
	PrivateDir        string
	IncludeDirs       []IncludeDir
	Deps              []depresolver.Dependency
	ExtraArgs         map[string][]string // lang -> target's own args[lang]
	PIC               bool
	PIE               bool
	Visibility        string // "", "hidden", "default", ...
	ExportDynamic     bool
	Rpaths            []string
	Frameworks        []string
	Soname            string
	LinkWith          []string
	LinkWhole         []string
	LinkWithNotFound  []string
	LinkArgs          []string // target's own c_link_args-style extra link args

	// Filled in by Prepare/SetupLinkerArgs.
	ProcessedArgs map[string][]string // lang -> final compiler args
	LinkerArgs    []string
}

// Project carries the option/arg state shared by every target in a
// project: global and project-level compiler/linker args, the resolved
// buildtype, and the option registry driving b_* feature flags.
type Project struct {
	BuildRoot   string
	Options     *option.Registry
	GlobalArgs  map[string][]string // lang -> global_args
	ProjectArgs map[string][]string // lang -> project_args
	GlobalLink  []string
	ProjectLink []string
}

// Prepare implements prepare_all_targets' per-(target,language) step
// sequence (spec §4.9 steps 1-7), filling t.ProcessedArgs[lang].
func Prepare(p *Project, t *Target, lang string, c *toolchain.Compiler) error {
	if t.ProcessedArgs == nil {
		t.ProcessedArgs = map[string][]string{}
	}

	// Step 1: generated_include directories must exist before anything
	// references them, and come first in the target's own include list.
	if t.GeneratedInclude && t.PrivateDir != "" {
		if err := os.MkdirAll(t.PrivateDir, 0o755); err != nil {
			return err
		}
		found := false
		for _, d := range t.IncludeDirs {
			if d.Path == t.PrivateDir {
				found = true
				break
			}
		}
		if !found {
			t.IncludeDirs = append([]IncludeDir{{Path: t.PrivateDir}}, t.IncludeDirs...)
		}
	}

	var args []string

	// Step 2: base compiler args.
	base, err := baseCompilerArgs(p, t, lang, c)
	if err != nil {
		return err
	}
	args = append(args, base...)

	// Step 3: include directories, made relative to the build root where
	// possible.
	for _, d := range t.IncludeDirs {
		path := d.Path
		if p.BuildRoot != "" && pathutil.IsSubpath(p.BuildRoot, d.Path) {
			if rel, err := pathutil.RelativeTo(p.BuildRoot, d.Path); err == nil {
				path = rel
			}
		}
		var flag []string
		var err error
		if d.System {
			flag, err = c.Invoke("include_system", path)
		} else {
			flag, err = c.Invoke("include", path)
		}
		if err != nil {
			return err
		}
		args = append(args, flag...)
	}

	// Step 4: aggregated per-dependency compile args.
	agg := depresolver.Aggregate(t.Deps)
	args = append(args, agg.CompileArgs...)

	// Step 5: target-specific args.
	args = append(args, t.ExtraArgs[lang]...)

	// Step 6: feature flags.
	if t.PIC {
		if flag, err := c.Invoke("pic"); err == nil {
			args = append(args, flag...)
		}
	}
	if t.PIE {
		if flag, err := c.Invoke("pie"); err == nil {
			args = append(args, flag...)
		}
	}
	if t.Visibility != "" {
		if flag, err := c.Invoke("visibility", t.Visibility); err == nil {
			args = append(args, flag...)
		}
	}

	// Step 7: store.
	t.ProcessedArgs[lang] = args
	return nil
}

// baseCompilerArgs implements step 2: always + std + buildtype opt/debug +
// warning level + werror + optional b_* args + global + project args.
func baseCompilerArgs(p *Project, t *Target, lang string, c *toolchain.Compiler) ([]string, error) {
	var args []string

	if flag, err := c.Invoke("always"); err == nil {
		args = append(args, flag...)
	}

	stdOpt := lang + "_std"
	if std := stringOpt(p.Options, stdOpt); std != "" && std != "none" {
		if flag, err := c.Invoke("set_std", std); err == nil {
			args = append(args, flag...)
		}
	}

	optLevel, debug := resolveOptDebug(p.Options)
	if flag, err := c.Invoke("optimization", optLevel); err == nil {
		args = append(args, flag...)
	}
	if debug {
		if flag, err := c.Invoke("debug"); err == nil {
			args = append(args, flag...)
		}
	}

	switch wl := stringOpt(p.Options, "warning_level"); {
	case wl == "everything":
		if flag, err := c.Invoke("warn_everything"); err == nil {
			args = append(args, flag...)
		}
	case wl != "":
		if flag, err := c.Invoke("warning_lvl", wl); err == nil {
			args = append(args, flag...)
		}
	}

	if boolOpt(p.Options, "werror") {
		if flag, err := c.Invoke("werror"); err == nil {
			args = append(args, flag...)
		}
	}

	args = append(args, optionalBArgs(p.Options, c, "compiler")...)

	args = append(args, p.GlobalArgs[lang]...)
	args = append(args, p.ProjectArgs[lang]...)

	return args, nil
}

// optionalBArgs handles b_sanitize/b_lto/b_coverage/b_ndebug/b_vscrt/b_pgo/
// b_colorout, emitting each through the matching handler when the option's
// value requests it. side selects the "compiler" or "linker" handler set,
// since most of these flags apply to both but a couple (lto, pgo, coverage,
// sanitize) are emitted on both compile and link lines.
func optionalBArgs(opts *option.Registry, c *toolchain.Compiler, side string) []string {
	var args []string
	invoke := c.Invoke
	if side == "linker" {
		invoke = c.InvokeLinker
	}

	if v := stringOpt(opts, "b_sanitize"); v != "" && v != "none" {
		if flag, err := invoke("sanitize", v); err == nil {
			args = append(args, flag...)
		}
	}
	if boolOpt(opts, "b_lto") {
		if flag, err := invoke("enable_lto"); err == nil {
			args = append(args, flag...)
		}
	}
	if boolOpt(opts, "b_coverage") {
		if flag, err := invoke("coverage"); err == nil {
			args = append(args, flag...)
		}
	}
	if v := stringOpt(opts, "b_pgo"); v != "" && v != "off" {
		if flag, err := invoke("pgo", v); err == nil {
			args = append(args, flag...)
		}
	}
	if side == "compiler" {
		if v := stringOpt(opts, "b_vscrt"); v != "" {
			if flag, err := c.Invoke("crt", v); err == nil {
				args = append(args, flag...)
			}
		}
		if v := stringOpt(opts, "b_colorout"); v != "" {
			if flag, err := c.Invoke("color_output", v); err == nil {
				args = append(args, flag...)
			}
		}
		if v := stringOpt(opts, "b_ndebug"); v == "true" || (v == "if-release" && stringOpt(opts, "buildtype") == "release") {
			if flag, err := c.Invoke("define", "NDEBUG"); err == nil {
				args = append(args, flag...)
			}
		}
	}
	return args
}

// resolveOptDebug reads the buildtype option and, if it names one of the
// recognized composite values, returns its derived (optimization, debug)
// pair; otherwise it falls back to the project's own optimization/debug
// option values, per option.ResolveOptimizationDebug's contract.
func resolveOptDebug(opts *option.Registry) (string, bool) {
	buildtype := stringOpt(opts, "buildtype")
	if pair, ok := option.ResolveOptimizationDebug(buildtype); ok {
		return pair.Optimization, pair.Debug
	}
	return stringOpt(opts, "optimization"), boolOpt(opts, "debug")
}

// stringOpt/boolOpt read a registry option's typed value, returning the
// zero value if the option is undefined or holds a different Go type than
// expected (options are declared with a fixed option.Type, so a mismatch
// here means a caller error higher up, not a value worth propagating).
func stringOpt(opts *option.Registry, name string) string {
	v, ok := opts.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func boolOpt(opts *option.Registry, name string) bool {
	v, ok := opts.Get(name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// SetupLinkerArgs implements setup_linker_args (spec §4.9 steps 1-11) for
// non-static-library targets.
func SetupLinkerArgs(p *Project, t *Target, c *toolchain.Compiler) error {
	var args []string

	t.LinkWith = dedupStrings(t.LinkWith)
	t.LinkWhole = dedupStrings(t.LinkWhole)
	t.LinkWithNotFound = dedupStrings(t.LinkWithNotFound)

	_, debug := resolveOptDebug(p.Options)
	if debug {
		if flag, err := c.InvokeLinker("debug"); err == nil {
			args = append(args, flag...)
		}
	}

	if flag, err := c.InvokeLinker("always"); err == nil {
		args = append(args, flag...)
	}
	if flag, err := c.InvokeLinker("as_needed"); err == nil {
		args = append(args, flag...)
	}

	if t.Kind != KindSharedModule {
		if flag, err := c.InvokeLinker("no_undefined"); err == nil {
			args = append(args, flag...)
		}
	}

	if t.ExportDynamic {
		if flag, err := c.InvokeLinker("export_dynamic"); err == nil {
			args = append(args, flag...)
		}
	}

	args = append(args, optionalBArgs(p.Options, c, "linker")...)
	args = append(args, p.GlobalLink...)
	args = append(args, p.ProjectLink...)
	args = append(args, t.LinkArgs...)

	if t.PIC {
		if flag, err := c.InvokeLinker("pic"); err == nil {
			args = append(args, flag...)
		}
	}

	for _, rp := range t.Rpaths {
		if flag, err := c.InvokeLinker("rpath", rp); err == nil {
			args = append(args, flag...)
		}
	}

	for _, fw := range t.Frameworks {
		args = append(args, "-framework", fw)
	}

	if len(t.LinkWith) > 0 || len(t.LinkWhole) > 0 || len(t.LinkWithNotFound) > 0 {
		var grouped []string
		for _, w := range t.LinkWhole {
			if flag, err := c.InvokeLinker("whole_archive", w); err == nil {
				grouped = append(grouped, flag...)
			}
		}
		grouped = append(grouped, t.LinkWith...)
		grouped = append(grouped, t.LinkWithNotFound...)

		if start, err := c.InvokeLinker("start_group"); err == nil {
			args = append(args, start...)
		}
		args = append(args, grouped...)
		if end, err := c.InvokeLinker("end_group"); err == nil {
			args = append(args, end...)
		}
	}

	switch t.Kind {
	case KindSharedLibrary:
		if t.Soname != "" {
			if flag, err := c.InvokeLinker("soname", t.Soname); err == nil {
				args = append(args, flag...)
			}
		}
		if flag, err := c.InvokeLinker("shared"); err == nil {
			args = append(args, flag...)
		}
	case KindSharedModule:
		if t.Soname != "" {
			if flag, err := c.InvokeLinker("soname", t.Soname); err == nil {
				args = append(args, flag...)
			}
		}
		if flag, err := c.InvokeLinker("allow_shlib_undefined"); err == nil {
			args = append(args, flag...)
		}
		if flag, err := c.InvokeLinker("shared_module"); err == nil {
			args = append(args, flag...)
		}
	}

	t.LinkerArgs = args
	return nil
}

func dedupStrings(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

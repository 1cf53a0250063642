// Package depresolver implements muon's `dependency(name)` resolution
// order (project-local override, wrap-provides table, pkg-config, direct
// library search) and the aggregation of whatever each source returns
// into a single build_dep.
//
// The pkg-config side is grounded on cmd/distri/pkgconfig.go's
// pkgConfigFilesFromRequires, which tokenizes a Requires/Requires.private
// field (name/operator/version triples separated by commas or spaces)
// into a plain module-name list; that tokenizer is extended here into a
// full .pc field parser (Name, Version, Requires, Libs, Cflags, and
// ${variable} substitution) since distri only ever needed the module
// names, not the flags themselves.
package depresolver

import "fmt"

// Type is a dependency's resolution kind.
type Type int

const (
	TypeDeclared Type = iota
	TypePkgconf
	TypeThreads
	TypeExternalLibrary
	TypeAppleFrameworks
	TypeNotFound
)

// Machine distinguishes host and build machine dependency sets for cross
// builds.
type Machine int

const (
	MachineHost Machine = iota
	MachineBuild
)

// BuildDep is the aggregated, ready-to-consume half of a Dependency: the
// flags and link inputs a target actually appends to its argument lists.
type BuildDep struct {
	IncludeDirectories []string
	CompileArgs        []string
	LinkArgs           []string
	LinkWith           []string
	LinkWhole          []string
	LinkWithNotFound   []string
	Rpath              []string
	Frameworks         []string
	OrderDeps          []string
	LinkLanguage       string

	// Raw holds the pre-aggregation references (e.g. the declared
	// dependency objects this one was built from) so that repeated
	// traversal/dedup can re-walk the source set instead of only ever
	// seeing the flattened result.
	Raw []string
}

// Dependency is the resolved view spec §3 describes.
type Dependency struct {
	Name    string
	Type    Type
	Version string
	Found   bool
	Machine Machine
	Dep     BuildDep
}

// LibrarySearchPolicy controls the file-extension order find_library
// tries when both a static and a dynamic candidate could satisfy a name.
type LibrarySearchPolicy int

const (
	PreferStatic LibrarySearchPolicy = iota
	PreferDynamic
	StaticOnly
)

// PkgConfigLookup resolves a pkg-config module name to a parsed .pc file,
// or ok=false if no module by that name is on the search path. It is
// supplied by the caller (a test double in unit tests) so this package
// stays free of filesystem concerns.
type PkgConfigLookup func(name string) (PkgConfigFile, bool)

// LibraryFinder performs the compiler-specific directory search
// find_library falls back to. It is supplied by the caller (normally
// backed by a toolchain.Compiler's LibDirs).
type LibraryFinder func(name string, extraDirs []string, policy LibrarySearchPolicy) (path string, found bool)

// Resolver resolves dependency(name) calls for one project.
type Resolver struct {
	ProjectOverrides map[string]Dependency
	WrapProvides     map[string]string // dependency name -> subproject name
	PkgConfig        PkgConfigLookup
	FindLibrary      LibraryFinder

	// ResolveSubproject looks up a dependency variable exposed by an
	// already-evaluated subproject (its declare_dependency() result),
	// keyed by (subproject name, dependency variable name). This models
	// wrap [provide] table entries of the form `dep_name = variable_name`.
	ResolveSubproject func(subproject, variable string) (Dependency, bool)
}

// Resolve implements the order spec §4.8 describes: project-local
// override, wrap-provides table, system pkg-config lookup, direct
// library search via the compiler's find_library.
func (r *Resolver) Resolve(name string, static bool) (Dependency, error) {
	if r.ProjectOverrides != nil {
		if d, ok := r.ProjectOverrides[name]; ok {
			return d, nil
		}
	}
	if r.WrapProvides != nil {
		if subproject, ok := r.WrapProvides[name]; ok && r.ResolveSubproject != nil {
			if d, ok := r.ResolveSubproject(subproject, name); ok {
				return d, nil
			}
		}
	}
	if r.PkgConfig != nil {
		if pc, ok := r.PkgConfig(name); ok {
			return dependencyFromPkgConfig(name, pc), nil
		}
	}
	if r.FindLibrary != nil {
		policy := PreferDynamic
		if static {
			policy = StaticOnly
		}
		if path, found := r.FindLibrary(name, nil, policy); found {
			return Dependency{
				Name:  name,
				Type:  TypeExternalLibrary,
				Found: true,
				Dep:   BuildDep{LinkWith: []string{path}},
			}, nil
		}
		// Nothing found on disk: assume the linker will locate it at
		// link time and just emit -lname.
		return Dependency{
			Name:  name,
			Type:  TypeExternalLibrary,
			Found: true,
			Dep:   BuildDep{LinkArgs: []string{"-l" + name}},
		}, nil
	}
	return Dependency{Name: name, Type: TypeNotFound, Found: false}, fmt.Errorf("depresolver: dependency %q not found", name)
}

func dependencyFromPkgConfig(name string, pc PkgConfigFile) Dependency {
	return Dependency{
		Name:    name,
		Type:    TypePkgconf,
		Version: pc.Version,
		Found:   true,
		Dep: BuildDep{
			CompileArgs: pc.Cflags,
			LinkArgs:    pc.Libs,
		},
	}
}

// Aggregate merges deps into a single BuildDep, deduplicating include
// directories and link_with entries while preserving first-occurrence
// insertion order (spec §4.8's aggregation invariant).
func Aggregate(deps []Dependency) BuildDep {
	var out BuildDep
	seenInclude := map[string]bool{}
	seenLinkWith := map[string]bool{}
	for _, d := range deps {
		for _, inc := range d.Dep.IncludeDirectories {
			if !seenInclude[inc] {
				seenInclude[inc] = true
				out.IncludeDirectories = append(out.IncludeDirectories, inc)
			}
		}
		for _, lw := range d.Dep.LinkWith {
			if !seenLinkWith[lw] {
				seenLinkWith[lw] = true
				out.LinkWith = append(out.LinkWith, lw)
			}
		}
		out.CompileArgs = append(out.CompileArgs, d.Dep.CompileArgs...)
		out.LinkArgs = append(out.LinkArgs, d.Dep.LinkArgs...)
		out.LinkWhole = append(out.LinkWhole, d.Dep.LinkWhole...)
		out.LinkWithNotFound = append(out.LinkWithNotFound, d.Dep.LinkWithNotFound...)
		out.Rpath = append(out.Rpath, d.Dep.Rpath...)
		out.Frameworks = append(out.Frameworks, d.Dep.Frameworks...)
		out.OrderDeps = append(out.OrderDeps, d.Dep.OrderDeps...)
		out.Raw = append(out.Raw, d.Name)
	}
	return out
}

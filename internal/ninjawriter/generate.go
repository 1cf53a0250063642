package ninjawriter

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"muon.build/muon/internal/buildgraph"
	"muon.build/muon/internal/installrunner"
	"muon.build/muon/internal/testrunner"
	"muon.build/muon/internal/toolchain"
)

// SourceFile is one translation unit belonging to a target.
type SourceFile struct {
	Lang   string
	Path   string
	Object string
}

// TargetPlan carries everything Generate needs beyond what
// buildgraph.Target already computed (ProcessedArgs, LinkerArgs): the
// concrete source list, the link output path, and build-by-default /
// extra dependency bookkeeping the interpreter tracked while evaluating
// the target's declaration.
type TargetPlan struct {
	Target *buildgraph.Target
	Lang   string // primary language, used to pick the link-step compiler

	Sources        []SourceFile
	Output         string
	BuildByDefault bool

	CompileImplicitDeps []string // per source file, e.g. generated headers
	CompileOrderDeps    []string
	LinkImplicitDeps    []string
	LinkOrderDeps       []string
}

// CustomTarget is a custom_target()/run_target() whose command is
// wrapped through this binary's own `internal exe` mode per §6, with
// non-Ninja-safe arguments routed through a side-channel data file
// (§4.11's "this keeps arbitrary binary data out of the Ninja file").
type CustomTarget struct {
	Outputs      []string
	Inputs       []string
	Command      []string
	Env          []string
	Depfile      string
	DataFilePath string // where the side-channel data was/will be written; "" if Ninja-safe
	BuildByDefault bool
}

// AliasTarget is a phony alias over other targets' outputs.
type AliasTarget struct {
	Name string
	Deps []string
}

// RegenerateSpec describes the REGENERATE_BUILD rule's reconstructed
// invocation (§4.11/§6): argv0, -C, source root, setup, every
// command-line -D override and every environment-sourced option.
type RegenerateSpec struct {
	Argv         []string // full reconstructed command line
	Inputs       []string // regenerate-deps set: meson.build files etc.
	NinjaPath    string
}

// Plan is everything Generate needs to emit one project's build.ninja
// plus its side-channel files.
type Plan struct {
	Project       *buildgraph.Project
	Compilers     map[string]*toolchain.Compiler // by language
	Targets       []TargetPlan
	CustomTargets []CustomTarget
	Aliases       []AliasTarget
	Regenerate    RegenerateSpec

	Tests    []testrunner.Test
	Install  installrunner.Manifest
	Summary  map[string]string
}

// isNinjaSafe reports whether s can appear directly in a Ninja command
// line: no embedded newline, which would otherwise terminate the
// statement early (§6).
func isNinjaSafe(ss []string) bool {
	for _, s := range ss {
		if strings.ContainsRune(s, '\n') {
			return false
		}
	}
	return true
}

// Generate builds a Writer from plan and writes build.ninja plus every
// side-channel file (tests.dat, install.dat, summary.txt) into dir.
// compiler_check_cache.dat is owned by internal/workspace and is written
// by cmd/muon's setup after Generate returns. option_info.dat is not
// written by Generate or by any caller (workspace.DumpOptionInfo exists
// but nothing calls it). Generate only emits the manifest-adjacent files
// it has the data for.
func Generate(dir string, plan Plan) error {
	w := NewWriter()

	emitRegenerate(w, plan.Regenerate)

	for _, tp := range plan.Targets {
		if err := emitTarget(w, plan.Project, tp, plan.Compilers); err != nil {
			return fmt.Errorf("ninjawriter: target %s: %w", tp.Target.Name, err)
		}
	}

	for _, ct := range plan.CustomTargets {
		emitCustomTarget(w, ct)
	}

	for _, a := range plan.Aliases {
		w.AddBuild(Build{Rule: "phony", Outputs: []string{a.Name}, Inputs: a.Deps})
	}

	if len(w.defaults) == 0 {
		// §4.11: "A default phony target is emitted if nothing else
		// declared itself build_by_default."
		var all []string
		for _, tp := range plan.Targets {
			all = append(all, tp.Output)
		}
		w.AddBuild(Build{Rule: "phony", Outputs: []string{"all"}, Inputs: all})
		w.AddDefault("all")
	}

	if err := w.WriteFile(filepath.Join(dir, "build.ninja")); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(dir, ".muon", "tests.dat"), func(f io.Writer) error {
		return testrunner.DumpTests(f, plan.Tests)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, ".muon", "install.dat"), func(f io.Writer) error {
		return installrunner.DumpManifest(f, plan.Install)
	}); err != nil {
		return err
	}
	if plan.Summary != nil {
		if err := writeFile(filepath.Join(dir, ".muon", "summary.txt"), func(f io.Writer) error {
			keys := make([]string, 0, len(plan.Summary))
			for k := range plan.Summary {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if _, err := fmt.Fprintf(f, "%s: %s\n", k, plan.Summary[k]); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}

func emitRegenerate(w *Writer, r RegenerateSpec) {
	w.AddRule(Rule{
		Name:      "REGENERATE_BUILD",
		Command:   strings.Join(escapeAll(r.Argv), " "),
		Generator: true,
	})
	w.AddBuild(Build{Rule: "REGENERATE_BUILD", Outputs: []string{r.NinjaPath}, Inputs: r.Inputs})
}

func emitTarget(w *Writer, proj *buildgraph.Project, tp TargetPlan, compilers map[string]*toolchain.Compiler) error {
	var objects []string
	for _, src := range tp.Sources {
		c, ok := compilers[src.Lang]
		if !ok {
			return fmt.Errorf("no compiler configured for language %q", src.Lang)
		}
		args := tp.Target.ProcessedArgs[src.Lang]
		ruleName := w.AddRule(Rule{
			Name:        ruleBaseName(tp.Target.Name, src.Lang) + "_compiler",
			Command:     strings.Join(escapeAll(c.Command), " ") + " $ARGS -c $in -o $out",
			Description: "Compiling " + src.Lang + " object $out",
			Deps:        "gcc",
			Depfile:     "$out.d",
		})
		w.AddBuild(Build{
			Rule:            ruleName,
			Outputs:         []string{src.Object},
			Inputs:          []string{src.Path},
			ImplicitInputs:  tp.CompileImplicitDeps,
			OrderOnlyInputs: tp.CompileOrderDeps,
			Variables:       map[string]string{"ARGS": strings.Join(escapeAll(args), " ")},
		})
		objects = append(objects, src.Object)
	}

	c, ok := compilers[tp.Lang]
	if !ok {
		return fmt.Errorf("no compiler configured for link language %q", tp.Lang)
	}

	linkCommand := c.LinkerCommand
	isStatic := tp.Target.Kind == buildgraph.KindStaticLibrary
	invoke := "_linker"
	if isStatic {
		linkCommand = c.StaticLinkerCommand
		invoke = "_static_linker"
		// ar does not remove stale entries from an existing archive, so
		// the rule removes the output first, per §4.11.
	}

	var cmd strings.Builder
	if isStatic {
		cmd.WriteString("rm -f $out && ")
	}
	cmd.WriteString(strings.Join(escapeAll(linkCommand), " "))
	cmd.WriteString(" $LINK_ARGS $in -o $out")

	ruleName := w.AddRule(Rule{
		Name:        ruleBaseName(tp.Target.Name, tp.Lang) + invoke,
		Command:     cmd.String(),
		Description: "Linking $out",
	})
	w.AddBuild(Build{
		Rule:            ruleName,
		Outputs:         []string{tp.Output},
		Inputs:          objects,
		ImplicitInputs:  tp.LinkImplicitDeps,
		OrderOnlyInputs: tp.LinkOrderDeps,
		Variables:       map[string]string{"LINK_ARGS": strings.Join(escapeAll(tp.Target.LinkerArgs), " ")},
	})

	if tp.BuildByDefault {
		w.AddDefault(tp.Output)
	}
	return nil
}

func ruleBaseName(name, lang string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(name) + "_" + lang
}

func emitCustomTarget(w *Writer, ct CustomTarget) {
	ruleName := "CUSTOM_COMMAND"
	if ct.Depfile != "" {
		ruleName = "CUSTOM_COMMAND_DEP"
	}

	var command string
	if ct.DataFilePath != "" || !isNinjaSafe(ct.Command) {
		// §4.11: route through this binary's own `internal exe` mode,
		// passing the real argv/env/redirection by path rather than
		// inline, since Ninja forbids embedded newlines and the command
		// may contain arbitrary binary-unsafe characters.
		command = fmt.Sprintf("$MUON internal exe %s", escape(ct.DataFilePath))
	} else {
		command = strings.Join(escapeAll(ct.Command), " ")
	}

	name := w.AddRule(Rule{
		Name:    ruleName,
		Command: command,
		Depfile: ct.Depfile,
		Restat:  true,
	})
	w.AddBuild(Build{Rule: name, Outputs: ct.Outputs, Inputs: ct.Inputs})
	if ct.BuildByDefault {
		for _, o := range ct.Outputs {
			w.AddDefault(o)
		}
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := mkdirAllFor(path); err != nil {
		return err
	}
	return atomicWrite(path, write)
}

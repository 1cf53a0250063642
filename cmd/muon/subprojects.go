package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"muon.build/muon/internal/wrap"
)

// cmdSubprojects implements `muon subprojects {list,update,clean}` over
// the source tree's subprojects/*.wrap files, per spec §6.
func cmdSubprojects(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: muon subprojects {list,update,clean} [-C srcdir]")
	}
	sub, rest := args[0], args[1:]
	fset := flag.NewFlagSet("subprojects "+sub, flag.ExitOnError)
	srcDir := fset.String("C", ".", "source directory")
	if err := fset.Parse(rest); err != nil {
		return err
	}

	wrapDir := filepath.Join(*srcDir, "subprojects")
	files, err := loadWrapFiles(wrapDir)
	if err != nil {
		return err
	}

	switch sub {
	case "list":
		for _, f := range files {
			method := "file"
			if f.Method == wrap.MethodGit {
				method = "git"
			}
			fmt.Printf("%s (%s)\n", f.Name, method)
		}
		return nil
	case "update":
		return updateSubprojects(ctx, *srcDir, files)
	case "clean":
		return cleanSubprojects(*srcDir, files)
	default:
		return fmt.Errorf("subprojects: unknown sub-command %q", sub)
	}
}

func loadWrapFiles(wrapDir string) ([]*wrap.File, error) {
	entries, err := os.ReadDir(wrapDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []*wrap.File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".wrap") {
			continue
		}
		f, err := os.Open(filepath.Join(wrapDir, e.Name()))
		if err != nil {
			return nil, err
		}
		wf, err := wrap.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		wf.Name = strings.TrimSuffix(e.Name(), ".wrap")
		out = append(out, wf)
	}
	return out, nil
}

// updateSubprojects brings every subproject's source tree up to date
// concurrently via wrap.Driver, adding handlers in wrap.Order's output
// order. The dependency map passed to Order has no edges, so that order
// does not reflect [provide] tables; Driver fans every handler out
// concurrently regardless, since a wrap fetch never reads another
// subproject's source tree.
func updateSubprojects(ctx context.Context, srcDir string, files []*wrap.File) error {
	deps := map[string][]string{}
	for _, f := range files {
		deps[f.Name] = nil
	}
	order, err := wrap.Order(deps)
	if err != nil {
		return fmt.Errorf("subprojects update: %w", err)
	}

	driver := wrap.NewDriver()
	byName := map[string]*wrap.File{}
	for _, f := range files {
		byName[f.Name] = f
	}
	for _, name := range order {
		f := byName[name]
		destDir := filepath.Join(srcDir, "subprojects", f.Name)
		var backend wrap.Backend
		if f.Method == wrap.MethodGit {
			backend = &wrap.GitBackend{}
		} else {
			backend = &wrap.FileBackend{}
		}
		driver.Add(wrap.NewHandler(f.Name, f, destDir, wrap.ModeUpdate, backend))
	}

	for done := range driver.Run(func(h *wrap.Handler, p wrap.Progress) {}) {
		if done.Err != nil {
			fmt.Fprintf(os.Stderr, "subprojects update: %s: %v\n", done.Handler.Subproject, done.Err)
			continue
		}
		fmt.Printf("%s: up to date\n", done.Handler.Subproject)
	}
	return nil
}

// cleanSubprojects removes every subproject directory whose .wrap file
// still names it, as a destructive-but-explicit operation the user
// requested; directories under subprojects/ with no matching .wrap are
// left untouched since they may be packagefiles overlays or manually
// vendored trees, not something `clean` owns.
func cleanSubprojects(srcDir string, files []*wrap.File) error {
	for _, f := range files {
		dir := filepath.Join(srcDir, "subprojects", f.Name)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("subprojects clean: removing %s: %w", dir, err)
		}
		fmt.Printf("removed %s\n", dir)
	}
	return nil
}

package installrunner

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"muon.build/muon/internal/procrunner"
)

// Options configures one install run.
type Options struct {
	Destdir    string // DESTDIR; empty means install directly to Prefix
	DryRun     bool
	Log        *log.Logger
	SkipHooks  bool // SkipContentHooks-equivalent; reserved for future rpath/sysusers hooks
}

// Run stages every target in m, then runs every install script, exactly
// in that order (§4.13: targets first, scripts after), returning the
// first error encountered. Target installation fans out with an
// errgroup the way (*install.Ctx).Packages fans out concurrent package
// installs; scripts run serially afterwards since a later script may
// depend on an earlier one's filesystem side effects (§4.13 gives them
// no parallelism guarantee).
func Run(ctx context.Context, m Manifest, opts Options) error {
	logger := opts.Log
	if logger == nil {
		logger = log.Default()
	}

	root := filepath.Join(opts.Destdir, m.Prefix)

	var eg errgroup.Group
	for _, t := range m.Targets {
		t := t
		eg.Go(func() error {
			if err := installTarget(root, t, opts); err != nil {
				return xerrors.Errorf("installing %s: %w", t.Dest, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, s := range m.Scripts {
		if s.SkipIfDestdir && opts.Destdir != "" {
			logger.Printf("skipping install script %v (DESTDIR set)", s.Argv)
			continue
		}
		if err := runScript(ctx, s, m.Prefix, opts); err != nil {
			return xerrors.Errorf("install script %v: %w", s.Argv, err)
		}
	}
	return nil
}

func installTarget(root string, t Target, opts Options) error {
	switch t.Kind {
	case KindDefault:
		return installDefault(root, t, opts)
	case KindSubdir:
		return installSubdir(root, t, opts)
	case KindSymlink:
		return installSymlink(root, t, opts)
	case KindEmptyDir:
		return os.MkdirAll(filepath.Join(root, t.Dest), 0o755)
	default:
		return fmt.Errorf("installrunner: unknown target kind %d", t.Kind)
	}
}

func installDefault(root string, t Target, opts Options) error {
	if _, err := os.Stat(t.Src); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	dest := filepath.Join(root, t.Dest)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	fi, err := os.Stat(t.Src)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		if err := copyTree(t.Src, dest, nil, nil, opts); err != nil {
			return err
		}
	} else {
		if err := copyFile(t.Src, dest, t.Mode, opts); err != nil {
			return err
		}
	}
	// FixRpath is a documented hook point (§4.13: "optionally fix rpaths
	// of ELF binaries post-copy"); rewriting ELF dynamic sections is out
	// of scope here (no ELF-editing library in the pack), and the runner
	// does not read FixRpath: installed binaries keep their rpaths as
	// built.
	return nil
}

func installSubdir(root string, t Target, opts Options) error {
	dest := filepath.Join(root, t.Dest)
	return copyTree(t.Src, dest, t.ExcludeFiles, t.ExcludeDirs, opts)
}

func installSymlink(root string, t Target, opts Options) error {
	dest := filepath.Join(root, t.Dest)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if opts.DryRun {
		return nil
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Symlink(t.Src, dest)
}

// copyTree walks src and replicates it under dest, skipping any entry
// whose path relative to src matches excludeFiles/excludeDirs, mirroring
// §4.13's subdir install semantics.
func copyTree(src, dest string, excludeFiles, excludeDirs []string, opts Options) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if contains(excludeDirs, rel) {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(dest, rel), 0o755)
		}
		if contains(excludeFiles, rel) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, filepath.Join(dest, rel), uint32(fi.Mode().Perm()), opts)
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// copyFile copies src to dest atomically via renameio, matching
// internal/install/install.go's hookinstall closure (renameio.TempFile
// + CloseAtomicallyReplace) so a reader that crashes mid-install never
// observes a partially-written destination file.
func copyFile(src, dest string, mode uint32, opts Options) error {
	if opts.DryRun {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := renameio.TempFile("", dest)
	if err != nil {
		return err
	}
	defer out.Cleanup()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if mode != 0 {
		out.Chmod(os.FileMode(mode))
	}
	return out.CloseAtomicallyReplace()
}

// runScript invokes one install script with the MESON_INSTALL_* env
// §4.13 specifies, failing the install on non-zero exit.
func runScript(ctx context.Context, s Script, prefix string, opts Options) error {
	env := append([]string{}, s.Env...)
	env = append(env,
		"MESON_INSTALL_PREFIX="+prefix,
		"MESON_INSTALL_DESTDIR_PREFIX="+filepath.Join(opts.Destdir, prefix),
	)
	if opts.Destdir != "" {
		env = append(env, "DESTDIR="+opts.Destdir)
	}
	if opts.DryRun {
		env = append(env, "MESON_INSTALL_DRY_RUN=1")
	}
	env = append(env, os.Environ()...)

	res := procrunner.Run(ctx, procrunner.Spec{Argv: s.Argv, Env: env, MergeOutput: true}, 0)
	if res.Err != nil {
		return res.Err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("exit status %d: %s", res.ExitCode, res.Combined)
	}
	return nil
}

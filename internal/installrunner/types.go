// Package installrunner implements muon's `install` subcommand: read the
// Ninja writer's install.dat side channel and stage every install
// target into DESTDIR, then run install scripts with the
// MESON_INSTALL_* environment §4.13 specifies.
//
// Grounded directly on internal/install/install.go: that file already
// does mkdir-then-copy staging with a temp-dir-then-rename atomic
// sequence and github.com/google/renameio atomic single-file writes (its
// hookinstall closure), plus golang.org/x/sync/errgroup fan-out over
// multiple packages (Ctx.Packages). installrunner keeps that atomicity
// and concurrency shape but walks per-install-target filesystem entries
// (default/subdir/symlink/emptydir) instead of unpacking a squashfs
// package image.
package installrunner

// Kind selects which of §4.13's four install-target behaviors applies.
type Kind int

const (
	KindDefault Kind = iota
	KindSubdir
	KindSymlink
	KindEmptyDir
)

// Target is one install target, as recorded into install.dat by the
// Ninja writer.
type Target struct {
	Kind Kind

	// Src is the file or directory being installed (Default, Subdir) or
	// the symlink's link target text (Symlink); unused for EmptyDir.
	Src string

	// Dest is the destination path, relative to the install prefix
	// (DESTDIR is prepended at install time, never baked in here).
	Dest string

	Mode uint32 // 0 means "leave at copy-time default permissions"

	// ExcludeFiles/ExcludeDirs are checked against each entry's path
	// relative to Src for KindSubdir, per §4.13.
	ExcludeFiles []string
	ExcludeDirs  []string

	FixRpath bool // fix ELF rpaths post-copy (Kind == KindDefault only)
}

// Script is one meson.add_install_script(...) entry.
type Script struct {
	Argv          []string
	Env           []string
	SkipIfDestdir bool
}

// Manifest is the full install.dat payload: every target and script for
// one project tree, plus the prefix they're relative to.
type Manifest struct {
	Prefix  string
	Targets []Target
	Scripts []Script
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"muon.build/muon/internal/installrunner"
)

// cmdInstall loads install.dat (written during setup by
// ninjawriter.Generate) and drives internal/installrunner.Run, per
// spec §4.13.
func cmdInstall(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("install", flag.ExitOnError)
	buildDir := fset.String("C", ".", "build directory")
	destdir := fset.String("destdir", os.Getenv("DESTDIR"), "staging root prepended to the install prefix")
	dryRun := fset.Bool("dry-run", false, "skip copying files and creating symlinks (destination directories are still created)")
	if err := fset.Parse(args); err != nil {
		return err
	}

	datPath := filepath.Join(muonDataDir(*buildDir), "install.dat")
	f, err := os.Open(datPath)
	if err != nil {
		return fmt.Errorf("install: %w (did you run `muon setup`/`muon compile` first?)", err)
	}
	defer f.Close()

	manifest, err := installrunner.LoadManifest(f)
	if err != nil {
		return fmt.Errorf("install: loading %s: %w", datPath, err)
	}

	return installrunner.Run(ctx, manifest, installrunner.Options{
		Destdir: *destdir,
		DryRun:  *dryRun,
		Log:     log.Default(),
	})
}

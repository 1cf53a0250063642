package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"muon.build/muon/internal/procrunner"
)

// cmdCompile shells out to ninja against the generated build.ninja,
// per spec §6 ("the Ninja backend is the hard one" — muon emits the
// manifest, a real ninja binary executes it).
func cmdCompile(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("compile", flag.ExitOnError)
	buildDir := fset.String("C", ".", "build directory")
	jobs := fset.Int("j", 0, "parallel job count (0 = ninja default)")
	if err := fset.Parse(args); err != nil {
		return err
	}

	argv := []string{"ninja", "-C", *buildDir}
	if *jobs > 0 {
		argv = append(argv, "-j", fmt.Sprint(*jobs))
	}
	argv = append(argv, fset.Args()...)

	res := procrunner.Run(ctx, procrunner.Spec{Argv: argv, MergeOutput: true}, 0)
	os.Stdout.Write(res.Combined)
	if res.Err != nil {
		return res.Err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("ninja exited with status %d", res.ExitCode)
	}
	return nil
}

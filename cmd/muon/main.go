// Command muon is the build-tool entry point: it wires together every
// internal package (option, toolchain, depresolver, buildgraph, wrap,
// vm/interp, ninjawriter, testrunner, installrunner, workspace) behind
// the command surface spec §6 names — setup, compile, test, install,
// subprojects {list,update,clean}, and the recursive `internal exe`
// sub-mode custom_target() commands route through.
//
// Grounded on cmd/distri/distri.go's funcmain: a verb-to-handler map,
// flag.NewFlagSet per subcommand (cmd/distri/build.go, batch.go, ...),
// InterruptibleContext wired around the whole dispatch, and a non-zero
// exit status on any handler error.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

var debug = flag.Bool("debug", false, "format errors with additional detail")

type verb struct {
	fn func(ctx context.Context, args []string) error
}

func verbs() map[string]verb {
	return map[string]verb{
		"setup":        {cmdSetup},
		"configure":    {cmdSetup},
		"compile":      {cmdCompile},
		"test":         {cmdTest},
		"install":      {cmdInstall},
		"subprojects":  {cmdSubprojects},
		"internal":     {cmdInternal},
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "muon [-flags] <command> [-flags] <args>\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "\tsetup       - configure a build directory from a source tree\n")
	fmt.Fprintf(os.Stderr, "\tcompile     - invoke ninja against a configured build directory\n")
	fmt.Fprintf(os.Stderr, "\ttest        - run the project's declared tests\n")
	fmt.Fprintf(os.Stderr, "\tinstall     - install build outputs to DESTDIR/prefix\n")
	fmt.Fprintf(os.Stderr, "\tsubprojects - list/update/clean wrap-based subprojects\n")
	fmt.Fprintf(os.Stderr, "\tinternal    - internal sub-modes invoked by generated build.ninja rules\n")
}

func run() error {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	name, rest := args[0], args[1:]

	v, ok := verbs()[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "muon: unknown command %q\n", name)
		usage()
		os.Exit(2)
	}

	// A bare context is enough to drive signal cancellation generically;
	// individual subcommands that construct a workspace.Workspace upgrade
	// to ws.InterruptibleContext so SIGINT also flushes that workspace's
	// at-exit hooks (compiler check cache, partial install state).
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := v.fn(ctx, rest); err != nil {
		if *debug {
			return fmt.Errorf("%s: %+v", name, err)
		}
		return fmt.Errorf("%s: %v", name, err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// muonDataDir is the side-channel directory under a build root that
// holds tests.dat/install.dat/compiler_check_cache.dat, per spec §4.11
// (no option_info.dat is written there).
func muonDataDir(buildRoot string) string {
	return buildRoot + "/.muon"
}

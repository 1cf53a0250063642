package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"muon.build/muon/internal/objheap"
	"muon.build/muon/internal/procrunner"
	"muon.build/muon/internal/serialize"
)

// cmdInternal implements the `muon internal <sub-mode>` recursion point
// spec §6 describes: generated build.ninja rules that can't embed their
// real argv/env directly (because it contains a newline or other
// Ninja-unsafe byte, per §4.11) instead invoke `$MUON internal exe
// <datafile>`, and this re-invocation of the same muon binary reads the
// side-channel datafile and execs the real command.
func cmdInternal(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: muon internal <exe> <datafile>")
	}
	mode, rest := args[0], args[1:]
	switch mode {
	case "exe":
		return cmdInternalExe(ctx, rest)
	default:
		return fmt.Errorf("muon internal: unknown sub-mode %q", mode)
	}
}

func cmdInternalExe(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("internal exe", flag.ExitOnError)
	if err := fset.Parse(args); err != nil {
		return err
	}
	rest := fset.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: muon internal exe <datafile>")
	}

	f, err := os.Open(rest[0])
	if err != nil {
		return err
	}
	defer f.Close()

	h, root, err := serialize.Load(f)
	if err != nil {
		return fmt.Errorf("internal exe: reading %s: %w", rest[0], err)
	}

	argvHandle, ok := h.DictGetStr(root, "argv")
	if !ok {
		return fmt.Errorf("internal exe: %s has no argv entry", rest[0])
	}
	var argv []string
	for _, elem := range h.ArrayToSlice(argvHandle) {
		s, _ := h.GetString(elem)
		argv = append(argv, s)
	}
	if len(argv) == 0 {
		return fmt.Errorf("internal exe: empty argv")
	}

	var env []string
	if envHandle, ok := h.DictGetStr(root, "env"); ok {
		for _, elem := range h.ArrayToSlice(envHandle) {
			s, _ := h.GetString(elem)
			env = append(env, s)
		}
	}
	dir := ""
	if dirHandle, ok := h.DictGetStr(root, "dir"); ok {
		dir, _ = h.GetString(dirHandle)
	}

	res := procrunner.Run(ctx, procrunner.Spec{Argv: argv, Dir: dir, Env: env, MergeOutput: true}, 0)
	os.Stdout.Write(res.Combined)
	if res.Err != nil {
		return res.Err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("internal exe: command exited with status %d", res.ExitCode)
	}
	return nil
}

// writeExeData serializes argv/env/dir into the side-channel format
// cmdInternalExe reads, for whichever component constructs a
// CustomTarget whose command isn't Ninja-safe (a real custom_target()
// evaluator, once the AST compiler exists — see DESIGN.md).
func writeExeData(path string, argv, env []string, dir string) error {
	h := objheap.New()
	root := h.MakeDict()
	argvArr := h.MakeArray()
	for _, a := range argv {
		h.ArrayPush(argvArr, h.MakeString(a))
	}
	h.DictSet(root, h.MakeString("argv"), argvArr)
	if len(env) > 0 {
		envArr := h.MakeArray()
		for _, e := range env {
			h.ArrayPush(envArr, h.MakeString(e))
		}
		h.DictSet(root, h.MakeString("env"), envArr)
	}
	if dir != "" {
		h.DictSet(root, h.MakeString("dir"), h.MakeString(dir))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return serialize.Dump(f, h, root)
}

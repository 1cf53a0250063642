package toolchain

// gccCompilerBuiltins implements the compiler handler set shared by
// gcc and clang (clang accepts the same flag syntax for everything this
// package models; clangCompilerBuiltins below starts from this table and
// overrides only warn_everything and argument_syntax).
var gccCompilerBuiltins = map[string]Handler{
	"always":         func(a ...string) []string { return nil },
	"output":         func(a ...string) []string { return []string{"-o", a[0]} },
	"compile_only":   func(a ...string) []string { return []string{"-c"} },
	"preprocess_only": func(a ...string) []string { return []string{"-E"} },
	"deps":           func(a ...string) []string { return []string{"-MD", "-MQ", a[0], "-MF", a[1]} },
	"deps_type":      func(a ...string) []string { return []string{"gcc"} },
	"debugfile":      func(a ...string) []string { return nil },
	"include":        func(a ...string) []string { return []string{"-I" + a[0]} },
	"include_system":  func(a ...string) []string { return []string{"-isystem", a[0]} },
	"define":         func(a ...string) []string { return []string{"-D" + a[0]} },
	"warn_everything": func(a ...string) []string { return []string{"-Wall", "-Wextra", "-Wpedantic"} },
	"warning_lvl": func(a ...string) []string {
		switch a[0] {
		case "1":
			return []string{"-Wall"}
		case "2":
			return []string{"-Wall", "-Wextra"}
		case "3":
			return []string{"-Wall", "-Wextra", "-Wpedantic"}
		default:
			return nil
		}
	},
	"werror":       func(a ...string) []string { return []string{"-Werror"} },
	"set_std":      func(a ...string) []string { return []string{"-std=" + a[0]} },
	"std_supported": func(a ...string) []string { return nil },
	"pic":          func(a ...string) []string { return []string{"-fPIC"} },
	"pie":          func(a ...string) []string { return []string{"-fPIE"} },
	"visibility":   func(a ...string) []string { return []string{"-fvisibility=" + a[0]} },
	"optimization": func(a ...string) []string { return []string{"-O" + a[0]} },
	"debug":        func(a ...string) []string { return []string{"-g"} },
	"sanitize":     func(a ...string) []string { return []string{"-fsanitize=" + a[0]} },
	"crt":          func(a ...string) []string { return nil },
	"pgo":          func(a ...string) []string { return []string{"-fprofile-use=" + a[0]} },
	"color_output": func(a ...string) []string { return []string{"-fdiagnostics-color=always"} },
	"enable_lto":   func(a ...string) []string { return []string{"-flto"} },
	"coverage":     func(a ...string) []string { return []string{"--coverage"} },
	"linker_passthrough": func(a ...string) []string {
		out := make([]string, 0, len(a))
		for _, arg := range a {
			out = append(out, "-Wl,"+arg)
		}
		return out
	},
	"permissive":          func(a ...string) []string { return []string{"-fpermissive"} },
	"fuse_ld":             func(a ...string) []string { return []string{"-fuse-ld=" + a[0]} },
	"linker_delimiter":    func(a ...string) []string { return []string{"-Wl,"} },
	"force_language":      func(a ...string) []string { return []string{"-x", a[0]} },
	"object_ext":          func(a ...string) []string { return []string{".o"} },
	"argument_syntax":     func(a ...string) []string { return []string{"gcc"} },
	"check_ignored_option": func(a ...string) []string { return nil },
}

var gccLinkerBuiltins = map[string]Handler{
	"always":         func(a ...string) []string { return nil },
	"as_needed":      func(a ...string) []string { return []string{"-Wl,--as-needed"} },
	"no_undefined":   func(a ...string) []string { return []string{"-Wl,--no-undefined"} },
	"export_dynamic": func(a ...string) []string { return []string{"-Wl,--export-dynamic"} },
	"rpath":          func(a ...string) []string { return []string{"-Wl,-rpath," + a[0]} },
	"lib":            func(a ...string) []string { return []string{"-l" + a[0]} },
	"whole_archive": func(a ...string) []string {
		return append([]string{"-Wl,--whole-archive"}, append(a, "-Wl,--no-whole-archive")...)
	},
	"start_group":   func(a ...string) []string { return []string{"-Wl,--start-group"} },
	"end_group":     func(a ...string) []string { return []string{"-Wl,--end-group"} },
	"soname":        func(a ...string) []string { return []string{"-Wl,-soname," + a[0]} },
	"shared":        func(a ...string) []string { return []string{"-shared"} },
	"shared_module": func(a ...string) []string { return []string{"-shared"} },
	"allow_shlib_undefined": func(a ...string) []string { return []string{"-Wl,--allow-shlib-undefined"} },
	"debug":         func(a ...string) []string { return []string{"-g"} },
	"pgo":           func(a ...string) []string { return []string{"-fprofile-use=" + a[0]} },
	"sanitize":      func(a ...string) []string { return []string{"-fsanitize=" + a[0]} },
	"enable_lto":    func(a ...string) []string { return []string{"-flto"} },
	"coverage":      func(a ...string) []string { return []string{"--coverage"} },
	"fatal_warnings": func(a ...string) []string { return []string{"-Wl,--fatal-warnings"} },
	"input_output": func(a ...string) []string {
		return append(append([]string{}, a[:len(a)-1]...), "-o", a[len(a)-1])
	},
}

var gccStaticLinkerBuiltins = map[string]Handler{
	"always": func(a ...string) []string { return []string{"csr"} },
	"base":   func(a ...string) []string { return nil },
	"input_output": func(a ...string) []string {
		return append([]string{a[len(a)-1]}, a[:len(a)-1]...)
	},
}

// clangCompilerBuiltins starts from the gcc table (clang's own flag
// syntax is gcc-compatible for every handler this package models) and
// overrides the handful of entries where clang genuinely diverges.
var clangCompilerBuiltins = mergeOverride(gccCompilerBuiltins, map[string]Handler{
	"warn_everything": func(a ...string) []string { return []string{"-Weverything"} },
	"argument_syntax":  func(a ...string) []string { return []string{"clang"} },
})

var clangLinkerBuiltins = gccLinkerBuiltins
var clangStaticLinkerBuiltins = gccStaticLinkerBuiltins

func mergeOverride(base, overrides map[string]Handler) map[string]Handler {
	out := make(map[string]Handler, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

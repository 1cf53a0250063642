package toolchain

// msvcCompilerBuiltins implements cl.exe's flag syntax. clang-cl accepts
// the same /flag syntax for the handlers this package models, so
// clangCLCompilerBuiltins below only overrides the entries where it
// genuinely diverges (warn_everything, argument_syntax).
var msvcCompilerBuiltins = map[string]Handler{
	"always":          func(a ...string) []string { return []string{"/nologo"} },
	"output":          func(a ...string) []string { return []string{"/Fo" + a[0]} },
	"compile_only":    func(a ...string) []string { return []string{"/c"} },
	"preprocess_only": func(a ...string) []string { return []string{"/E"} },
	"deps":            func(a ...string) []string { return []string{"/showIncludes"} },
	"deps_type":       func(a ...string) []string { return []string{"msvc"} },
	"debugfile":       func(a ...string) []string { return []string{"/Fd" + a[0]} },
	"include":         func(a ...string) []string { return []string{"/I" + a[0]} },
	"include_system":  func(a ...string) []string { return []string{"/external:I", a[0]} },
	"define":          func(a ...string) []string { return []string{"/D" + a[0]} },
	"warn_everything": func(a ...string) []string { return []string{"/Wall"} },
	"warning_lvl": func(a ...string) []string {
		switch a[0] {
		case "1":
			return []string{"/W1"}
		case "2":
			return []string{"/W2"}
		case "3":
			return []string{"/W3"}
		default:
			return nil
		}
	},
	"werror":              func(a ...string) []string { return []string{"/WX"} },
	"set_std":             func(a ...string) []string { return []string{"/std:" + a[0]} },
	"std_supported":       func(a ...string) []string { return nil },
	"pic":                 func(a ...string) []string { return nil },
	"pie":                 func(a ...string) []string { return nil },
	"visibility":          func(a ...string) []string { return nil },
	"optimization":        func(a ...string) []string { return []string{"/O" + a[0]} },
	"debug":               func(a ...string) []string { return []string{"/Zi"} },
	"sanitize":            func(a ...string) []string { return []string{"/fsanitize=" + a[0]} },
	"crt":                 func(a ...string) []string { return []string{"/" + a[0]} },
	"pgo":                 func(a ...string) []string { return nil },
	"color_output":        func(a ...string) []string { return []string{"/diagnostics:color"} },
	"enable_lto":          func(a ...string) []string { return []string{"/GL"} },
	"coverage":            func(a ...string) []string { return nil },
	"linker_passthrough":  func(a ...string) []string { return prefixAll(a, "/link") },
	"permissive":          func(a ...string) []string { return []string{"/permissive-"} },
	"fuse_ld":             func(a ...string) []string { return nil },
	"linker_delimiter":    func(a ...string) []string { return []string{"/link"} },
	"force_language":      func(a ...string) []string { return []string{"/Tc", a[0]} },
	"object_ext":          func(a ...string) []string { return []string{".obj"} },
	"argument_syntax":     func(a ...string) []string { return []string{"msvc"} },
	"check_ignored_option": func(a ...string) []string { return nil },
}

func prefixAll(args []string, prefix string) []string {
	out := make([]string, 0, len(args)+1)
	out = append(out, prefix)
	out = append(out, args...)
	return out
}

var msvcLinkerBuiltins = map[string]Handler{
	"always":                func(a ...string) []string { return []string{"/nologo"} },
	"as_needed":              func(a ...string) []string { return nil },
	"no_undefined":           func(a ...string) []string { return nil },
	"export_dynamic":         func(a ...string) []string { return []string{"/EXPORT:" + a[0]} },
	"rpath":                  func(a ...string) []string { return nil },
	"lib":                    func(a ...string) []string { return []string{a[0] + ".lib"} },
	"whole_archive":          func(a ...string) []string { return append([]string{"/WHOLEARCHIVE"}, a...) },
	"start_group":            func(a ...string) []string { return nil },
	"end_group":              func(a ...string) []string { return nil },
	"soname":                 func(a ...string) []string { return nil },
	"shared":                 func(a ...string) []string { return []string{"/DLL"} },
	"shared_module":          func(a ...string) []string { return []string{"/DLL"} },
	"allow_shlib_undefined":  func(a ...string) []string { return nil },
	"debug":                  func(a ...string) []string { return []string{"/DEBUG"} },
	"pgo":                    func(a ...string) []string { return nil },
	"sanitize":               func(a ...string) []string { return []string{"/fsanitize=" + a[0]} },
	"enable_lto":             func(a ...string) []string { return []string{"/LTCG"} },
	"coverage":               func(a ...string) []string { return nil },
	"fatal_warnings":         func(a ...string) []string { return []string{"/WX"} },
	"input_output": func(a ...string) []string {
		return append(append([]string{}, a[:len(a)-1]...), "/OUT:"+a[len(a)-1])
	},
}

var msvcStaticLinkerBuiltins = map[string]Handler{
	"always": func(a ...string) []string { return []string{"/nologo"} },
	"base":   func(a ...string) []string { return nil },
	"input_output": func(a ...string) []string {
		return append(append([]string{}, a[:len(a)-1]...), "/OUT:"+a[len(a)-1])
	},
}

var clangCLCompilerBuiltins = mergeOverride(msvcCompilerBuiltins, map[string]Handler{
	"warn_everything": func(a ...string) []string { return []string{"/Weverything"} },
	"argument_syntax":  func(a ...string) []string { return []string{"clang-cl"} },
})

var clangCLLinkerBuiltins = msvcLinkerBuiltins
var clangCLStaticLinkerBuiltins = msvcStaticLinkerBuiltins

var compilerBuiltins = map[Kind]map[string]Handler{
	KindGCC:     gccCompilerBuiltins,
	KindClang:   clangCompilerBuiltins,
	KindMSVC:    msvcCompilerBuiltins,
	KindClangCL: clangCLCompilerBuiltins,
}

var linkerBuiltins = map[Kind]map[string]Handler{
	KindGCC:     gccLinkerBuiltins,
	KindClang:   clangLinkerBuiltins,
	KindMSVC:    msvcLinkerBuiltins,
	KindClangCL: clangCLLinkerBuiltins,
}

var staticLinkerBuiltins = map[Kind]map[string]Handler{
	KindGCC:     gccStaticLinkerBuiltins,
	KindClang:   clangStaticLinkerBuiltins,
	KindMSVC:    msvcStaticLinkerBuiltins,
	KindClangCL: clangCLStaticLinkerBuiltins,
}

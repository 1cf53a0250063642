package depresolver

import (
	"bufio"
	"io"
	"strings"

	"muon.build/muon/internal/strutil"
)

// PkgConfigFile is a parsed .pc file: the Name/Version/Requires fields
// plus tokenized Cflags/Libs, with ${variable} references already
// substituted.
type PkgConfigFile struct {
	Name        string
	Version     string
	Description string
	Requires    []string
	Cflags      []string
	Libs        []string
}

// ParsePkgConfig parses a .pc file's contents. Variable definitions
// (`prefix=/usr`) are collected first and substituted into every
// subsequent field reference (`${prefix}/include`); keyword fields
// (Name, Version, Description, Requires, Requires.private, Cflags,
// Libs) are recognized case-sensitively the way pkg-config itself
// requires; Libs.private and any other keyword are ignored.
//
// Requires/Requires.private module lists are tokenized the same way
// cmd/distri/pkgconfig.go's pkgConfigFilesFromRequires does: fields split
// on comma/whitespace, with a bare comparison operator consuming the
// version token that follows it.
func ParsePkgConfig(r io.Reader) (PkgConfigFile, error) {
	vars := make(map[string]string)
	var pc PkgConfigFile
	var cflagsRaw, libsRaw, requiresRaw, requiresPrivateRaw string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if eq := strings.Index(line, "="); eq >= 0 && !strings.Contains(line[:eq], ":") {
			key := strings.TrimSpace(line[:eq])
			val := strings.TrimSpace(line[eq+1:])
			vars[key] = substituteVars(val, vars)
			continue
		}
		if colon := strings.Index(line, ":"); colon >= 0 {
			key := strings.TrimSpace(line[:colon])
			val := substituteVars(strings.TrimSpace(line[colon+1:]), vars)
			switch key {
			case "Name":
				pc.Name = val
			case "Version":
				pc.Version = val
			case "Description":
				pc.Description = val
			case "Requires":
				requiresRaw = val
			case "Requires.private":
				requiresPrivateRaw = val
			case "Cflags":
				cflagsRaw = val
			case "Libs":
				libsRaw = val
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return pc, err
	}

	pc.Requires = append(pkgConfigModuleNames(requiresRaw), pkgConfigModuleNames(requiresPrivateRaw)...)
	if cflagsRaw != "" {
		cflags, err := strutil.ShellSplitPosix(cflagsRaw)
		if err == nil {
			pc.Cflags = cflags
		}
	}
	if libsRaw != "" {
		libs, err := strutil.ShellSplitPosix(libsRaw)
		if err == nil {
			pc.Libs = libs
		}
	}
	return pc, nil
}

func substituteVars(s string, vars map[string]string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end >= 0 {
				name := s[i+2 : i+2+end]
				b.WriteString(vars[name])
				i += 2 + end + 1
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// pkgConfigModuleNames tokenizes a Requires-style field into module
// names, discarding comparison operators and the version token that
// follows them — the same shape as pkgConfigFilesFromRequires, splitting
// fields on commas, spaces and tabs.
func pkgConfigModuleNames(requires string) []string {
	if requires == "" {
		return nil
	}
	const operators = "<>!="
	fields := strings.FieldsFunc(requires, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	var modules []string
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if strings.IndexAny(f, operators) == 0 {
			i++
			continue
		}
		if strings.TrimSpace(f) == "" {
			continue
		}
		modules = append(modules, f)
	}
	return modules
}

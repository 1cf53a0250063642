package pathutil

import "strings"

// EscapeNinja escapes a string for embedding inside a Ninja build or rule
// statement, where '$' and ':' and spaces are significant to Ninja's own
// lexer. Grounded directly on the manifest-writing shape of
// cmd/distri/ninja.go, generalized to escape arbitrary path text rather
// than relying on paths never containing these characters.
func EscapeNinja(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '$', ':', ' ':
			b.WriteByte('$')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeShellPosix quotes s for safe embedding in a POSIX sh command
// line, using single quotes (which suppress all interpretation) and the
// standard '\''  escape for an embedded single quote.
func EscapeShellPosix(s string) string {
	if s == "" {
		return "''"
	}
	if !needsPosixQuoting(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsPosixQuoting(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_./,:+=@%", r):
		default:
			return true
		}
	}
	return false
}

// EscapeShellWindows quotes s for safe embedding in a cmd.exe command
// line, wrapping in double quotes and doubling any embedded double quote
// when quoting is required.
func EscapeShellWindows(s string) string {
	if s == "" {
		return `""`
	}
	if !strings.ContainsAny(s, " \t\"&|<>^") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// EscapePkgConfig escapes a value for embedding in a generated .pc file
// field, where backslash and space need escaping so pkg-config's own
// tokenizer reconstructs the original value.
func EscapePkgConfig(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\\' || r == ' ' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

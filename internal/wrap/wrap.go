// Package wrap implements muon's subproject wrap files: the INI-like
// [wrap-file]/[wrap-git]/[provide] document format, and the async
// per-subproject fetch state machine that brings a subproject's source
// tree up to the state the wrap file declares.
//
// The fetch-order cycle detection is grounded on cmd/distri/bump.go's
// dependency graph (gonum.org/v1/gonum/graph/{simple,topo}), which builds
// a DirectedGraph of package nodes and breaks cyclic components by
// dropping edges out of every node in the offending strongly-connected
// component before re-sorting.
package wrap

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Method selects how a wrap's source is obtained.
type Method int

const (
	MethodFile Method = iota
	MethodGit
)

// File is a parsed wrap file.
type File struct {
	Method Method
	Name   string // subproject name, set by the caller from the .wrap filename

	// [wrap-file]
	SourceURL         string
	SourceFallbackURL string
	SourceFilename    string
	SourceHash        string
	LeadDirectoryName string // derived: directory the archive extracts into
	LeadDirectoryMiss bool   // lead_directory_missing

	// [wrap-git]
	URL             string
	Revision        string
	Depth           int
	PushURL         string
	CloneRecursive  bool

	// shared
	Directory      string
	PatchURL       string
	PatchFilename  string
	PatchHash      string
	PatchDirectory string
	DiffFiles      []string

	// [provide]
	ProvideDeps    map[string]string // dependency name -> variable name
	ProvideProgs   map[string]string // program name -> variable name
}

// Parse reads a .wrap file's INI-like contents.
func Parse(r io.Reader) (*File, error) {
	f := &File{
		ProvideDeps:  map[string]string{},
		ProvideProgs: map[string]string{},
	}
	var section string
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			switch section {
			case "wrap-file":
				f.Method = MethodFile
			case "wrap-git":
				f.Method = MethodGit
			}
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			return nil, fmt.Errorf("wrap: line %d: expected key = value, got %q", lineNo, line)
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])

		if section == "provide" {
			switch key {
			case "dependency_names":
				for _, pair := range splitCommaList(val) {
					name, variable := splitEquals(pair)
					f.ProvideDeps[name] = variable
				}
			case "program_names":
				for _, pair := range splitCommaList(val) {
					name, variable := splitEquals(pair)
					f.ProvideProgs[name] = variable
				}
			default:
				// arbitrary "dep_name = variable_name" override line
				f.ProvideDeps[key] = val
			}
			continue
		}

		switch key {
		case "source_url":
			f.SourceURL = val
		case "source_fallback_url":
			f.SourceFallbackURL = val
		case "source_filename":
			f.SourceFilename = val
		case "source_hash":
			f.SourceHash = val
		case "lead_directory_missing":
			f.LeadDirectoryMiss = val == "true"
		case "url":
			f.URL = val
		case "revision":
			f.Revision = val
		case "depth":
			fmt.Sscanf(val, "%d", &f.Depth)
		case "push_url":
			f.PushURL = val
		case "clone_recursive":
			f.CloneRecursive = val == "true"
		case "directory":
			f.Directory = val
		case "patch_url":
			f.PatchURL = val
		case "patch_filename":
			f.PatchFilename = val
		case "patch_hash":
			f.PatchHash = val
		case "patch_directory":
			f.PatchDirectory = val
		case "diff_files":
			f.DiffFiles = splitCommaList(val)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	fields := strings.Split(s, ",")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func splitEquals(s string) (key, value string) {
	if idx := strings.Index(s, "="); idx >= 0 {
		return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:])
	}
	return strings.TrimSpace(s), strings.TrimSpace(s)
}

package testrunner

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// TAPResult is the outcome of parsing a test process's captured stdout
// as Test Anything Protocol output, per the GLOSSARY's definition:
// a `1..N` plan line followed by `ok N`/`not ok N` lines, each optionally
// suffixed `# SKIP reason` or `# TODO reason`.
type TAPResult struct {
	Planned int
	OK      []int
	NotOK   []int
	Skipped []int
	Bail    bool
}

// AllOK reports whether every planned test number reported ok (or was
// skipped), which combined with the process's own exit code 0 is what
// protocol "tap" treats as a pass (§4.12).
func (r TAPResult) AllOK() bool {
	if r.Bail {
		return false
	}
	if len(r.NotOK) > 0 {
		return false
	}
	if r.Planned == 0 {
		return len(r.OK)+len(r.Skipped) > 0
	}
	return len(r.OK)+len(r.Skipped) >= r.Planned
}

// ParseTAP scans a line-oriented TAP stream. Unrecognized lines
// (diagnostics prefixed `#`, or anything else a test prints to stdout)
// are ignored rather than rejected: TAP producers are free to interleave
// arbitrary chatter between result lines.
func ParseTAP(out []byte) TAPResult {
	var r TAPResult
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "1.."):
			n, err := strconv.Atoi(strings.TrimPrefix(line, "1.."))
			if err == nil {
				r.Planned = n
			}
		case strings.HasPrefix(line, "Bail out!"):
			r.Bail = true
		case strings.HasPrefix(line, "ok") || strings.HasPrefix(line, "not ok"):
			notOK := strings.HasPrefix(line, "not ok")
			rest := line
			if notOK {
				rest = strings.TrimPrefix(rest, "not ok")
			} else {
				rest = strings.TrimPrefix(rest, "ok")
			}
			rest = strings.TrimSpace(rest)

			num := 0
			fields := strings.Fields(rest)
			if len(fields) > 0 {
				if n, err := strconv.Atoi(fields[0]); err == nil {
					num = n
					rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))
				}
			}

			directive := rest
			if i := strings.IndexByte(rest, '#'); i >= 0 {
				directive = strings.ToUpper(strings.TrimSpace(rest[i+1:]))
			} else {
				directive = ""
			}

			switch {
			case strings.HasPrefix(directive, "SKIP"):
				r.Skipped = append(r.Skipped, num)
			case strings.HasPrefix(directive, "TODO"):
				// TODO-marked failures never fail the run, treat as ok.
				r.OK = append(r.OK, num)
			case notOK:
				r.NotOK = append(r.NotOK, num)
			default:
				r.OK = append(r.OK, num)
			}
		}
	}
	return r
}

//go:build windows

package procrunner

import (
	"os"
	"strings"
)

var execExts = []string{".exe", ".bat", ".cmd", ".com"}

func isExecutable(path string) bool {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return false
	}
	lower := strings.ToLower(path)
	for _, ext := range execExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

package depresolver

import (
	"os"

	"muon.build/muon/internal/pathutil"
)

// staticExts and dynamicExts are the (POSIX) library file extensions
// find_library tries, on every host; Windows ".lib"/".dll" names are not
// tried (cross-compiling implies the host running muon is not
// necessarily the platform the library is for).
var (
	staticExts  = []string{".a"}
	dynamicExts = []string{".so", ".dylib"}
)

// FindLibrary searches dirs in order for "libNAME.<ext>" (POSIX naming),
// trying extensions in the order policy dictates, and returns the first
// match found. It is the default, filesystem-backed LibraryFinder a
// Resolver can use; callers cross-compiling or targeting Windows supply
// their own LibraryFinder instead.
func FindLibrary(name string, dirs []string, policy LibrarySearchPolicy) (string, bool) {
	var exts []string
	switch policy {
	case StaticOnly:
		exts = staticExts
	case PreferStatic:
		exts = append(append([]string{}, staticExts...), dynamicExts...)
	default: // PreferDynamic
		exts = append(append([]string{}, dynamicExts...), staticExts...)
	}

	for _, dir := range dirs {
		for _, ext := range exts {
			candidate := pathutil.Join(dir, "lib"+name+ext)
			if fileExists(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

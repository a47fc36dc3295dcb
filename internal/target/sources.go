package target

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/cbuild/internal/logfields"
	"git.home.luguber.info/inful/cbuild/internal/toolchain"
)

// DiscoverSources walks every root recursively and returns the files carrying the
// toolchain's source extension, deduplicated and sorted. Unreadable entries and
// missing roots are skipped. A root that is a symlink is followed; symlinks
// below a root are not.
func DiscoverSources(roots []string, tc toolchain.Toolchain) []string {
	set := make(map[string]struct{})
	for _, root := range roots {
		root = followRoot(root)
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Debug("Skipping unreadable path", logfields.Path(path), logfields.Error(err))
				return nil
			}
			regular := d.Type().IsRegular()
			if path == root && d.Type()&fs.ModeSymlink != 0 {
				info, statErr := os.Stat(path)
				regular = statErr == nil && info.Mode().IsRegular()
			}
			if regular && tc.IsSource(path) {
				set[normalize(path)] = struct{}{}
			}
			return nil
		})
	}
	return sortedKeys(set)
}

// followRoot appends a separator to a root that links to a directory, which
// makes WalkDir descend into the target while paths keep the declared prefix.
func followRoot(root string) string {
	link, err := os.Lstat(root)
	if err != nil || link.Mode()&fs.ModeSymlink == 0 {
		return root
	}
	if info, err := os.Stat(root); err == nil && info.IsDir() {
		return strings.TrimRight(root, string(filepath.Separator)) + string(filepath.Separator)
	}
	return root
}

// IncludePaths flattens the declared include directories, dropping duplicates
// while keeping the first-declared order, which decides header lookup precedence.
func IncludePaths(includes []string) []string {
	seen := make(map[string]struct{}, len(includes))
	out := make([]string, 0, len(includes))
	for _, inc := range includes {
		if strings.TrimSpace(inc) == "" {
			continue
		}
		inc = normalize(inc)
		if _, ok := seen[inc]; ok {
			continue
		}
		seen[inc] = struct{}{}
		out = append(out, inc)
	}
	return out
}

// normalize cleans a path and strips a leading "./".
func normalize(path string) string {
	return strings.TrimPrefix(filepath.Clean(path), "./")
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

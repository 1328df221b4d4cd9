package overdrop

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// devNull is the symlink target that masks a fragment name.
const devNull = "/dev/null"

// Fragment is a single resolved configuration fragment.
type Fragment struct {
	// Name is the fragment's base filename, unique across a scan.
	Name string
	// Path is the full path of the file currently satisfying Name.
	Path string
}

// Fragments is the result of a scan: resolved fragments sorted by name in
// ascending byte order. The order is stable across repeated scans of an
// unchanged tree, so consumers may rely on it for deterministic merging.
type Fragments []Fragment

// Get returns the path resolved for name. The second return value reports
// whether the name is present.
func (f Fragments) Get(name string) (string, bool) {
	for _, fragment := range f {
		if fragment.Name == name {
			return fragment.Path, true
		}
	}
	return "", false
}

// Names returns the fragment names in resolution order.
func (f Fragments) Names() []string {
	names := make([]string, 0, len(f))
	for _, fragment := range f {
		names = append(names, fragment.Name)
	}
	return names
}

// FragmentScanner scans for configuration fragments across multiple
// directories with increasing priority. It holds only immutable
// configuration and is safe for concurrent use.
type FragmentScanner struct {
	dirs              []string
	ignoreDotfiles    bool
	allowedExtensions []string
}

// NewFragmentScanner returns a FragmentScanner over the directories formed
// by joining sharedPath onto each entry of baseDirs, preserving order.
// Directories listed later take priority over earlier ones.
//
// When ignoreDotfiles is set, files with a name prefixed with '.' are
// invisible to the scan. allowedExtensions restricts the scan to filenames
// carrying one of the given extensions (bare, without the leading dot); an
// empty list allows every filename.
//
// No filesystem access happens here; the directories need not exist yet.
func NewFragmentScanner(baseDirs []string, sharedPath string, ignoreDotfiles bool, allowedExtensions []string) *FragmentScanner {
	dirs := make([]string, 0, len(baseDirs))
	for _, base := range baseDirs {
		dirs = append(dirs, filepath.Join(base, sharedPath))
	}
	return &FragmentScanner{
		dirs:              dirs,
		ignoreDotfiles:    ignoreDotfiles,
		allowedExtensions: allowedExtensions,
	}
}

// Scan walks the configured directories in order and resolves the effective
// set of fragments. Fragments in directories that are scanned later override
// fragments of the same filename in directories that are scanned earlier,
// and a fragment symlinked to /dev/null drops any previously resolved
// fragment of the same filename.
//
// A directory that is missing or unreadable is skipped; higher-priority
// layers (e.g. under /run) commonly do not exist at all. An entry whose
// metadata cannot be read is skipped as well. Scan never fails: the worst
// environmental case is an empty result.
func (s *FragmentScanner) Scan() Fragments {
	resolved := make(map[string]string)
	for _, dir := range s.dirs {
		slog.Debug("scanning fragment directory", "dir", dir)

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			path := filepath.Join(dir, name)

			// If hidden files are not allowed, ignore dotfiles.
			if s.ignoreDotfiles && strings.HasPrefix(name, ".") {
				continue
			}

			if len(s.allowedExtensions) > 0 && !s.extensionAllowed(name) {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				continue
			}
			if !info.Mode().IsRegular() {
				// A devnull symlink is a special case masking earlier
				// fragments of the same name. Other non-files contribute
				// nothing and remove nothing.
				if target, err := os.Readlink(path); err == nil && target == devNull {
					slog.Debug("nulled fragment", "name", name, "path", path)
					delete(resolved, name)
				}
				continue
			}

			slog.Debug("found fragment", "name", name, "path", path)
			resolved[name] = path
		}
	}

	fragments := make(Fragments, 0, len(resolved))
	for name, path := range resolved {
		fragments = append(fragments, Fragment{Name: name, Path: path})
	}
	sort.Slice(fragments, func(i, j int) bool {
		return fragments[i].Name < fragments[j].Name
	})
	return fragments
}

// extensionAllowed reports whether name carries one of the allowed
// extensions. The extension is the text after the final '.' in the name;
// comparison is exact and case-sensitive.
func (s *FragmentScanner) extensionAllowed(name string) bool {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return false
	}
	extension := name[dot+1:]
	for _, allowed := range s.allowedExtensions {
		if extension == allowed {
			return true
		}
	}
	return false
}

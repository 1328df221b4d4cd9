// Package overdrop resolves drop-in configuration fragments across layered
// base directories.
//
// The package helps Linux services that ship as part of an image-based OS
// read their configuration from multiple layers (factory defaults, vendor
// overlays, runtime overrides, administrator overrides). Each layer may
// contribute fragment files to a common drop-in directory; a scan folds all
// layers into one deterministic view.
//
// # Usage
//
// The main entrypoint is FragmentScanner. It scans for configuration
// fragments across multiple directories with increasing priority, following
// these rules:
//
//   - fragments are identified by unique filenames (e.g. "50-limits.toml").
//   - in case of name duplication, the last directory wins (e.g.
//     /etc/svc/custom.toml overrides /usr/lib/svc/custom.toml).
//   - a fragment symlinked to /dev/null masks any fragment with the same
//     filename from earlier directories.
//
// For example:
//
//	scanner := overdrop.NewFragmentScanner(
//	    []string{"/usr/lib", "/run", "/etc"},
//	    "my-service/config.d",
//	    false,
//	    []string{"toml"},
//	)
//	for _, fragment := range scanner.Scan() {
//	    fmt.Printf("fragment %q located at %q\n", fragment.Name, fragment.Path)
//	}
//
// Scanning stops at the fragment directory itself: there is no recursion, no
// caching and no filesystem watching. The scanner never parses fragment
// contents; Merge offers an ordered fold over the winning files for callers
// that want to.
package overdrop

// Package version contains the version information set at build time.
package version

// version is the program version.  It is set at build time via ldflags.
var version = "dev"

// Version returns the program version.
func Version() (v string) {
	return version
}

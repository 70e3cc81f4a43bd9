// Package pathsep resolves the separator used to join and split
// classpath-like lists of filesystem paths.
//
// The separator is chosen once from the host platform and then passed
// explicitly to every component that splits or joins path lists.
package pathsep

import (
	"runtime"
	"strings"
)

// Separator is the string placed between entries of a path list.
type Separator string

const (
	// Colon separates path lists on Unix-like platforms.
	Colon Separator = ":"
	// Semicolon separates path lists on Windows.
	Semicolon Separator = ";"
)

// ForOS returns the separator for the given GOOS value.
func ForOS(goos string) Separator {
	if goos == "windows" {
		return Semicolon
	}
	return Colon
}

// Host returns the separator for the platform the binary runs on.
func Host() Separator {
	return ForOS(runtime.GOOS)
}

// Split splits a path list into its entries. Empty entries and duplicates
// are kept in the order they appear.
func (s Separator) Split(list string) []string {
	return strings.Split(list, string(s))
}

// Join joins path entries into a single list.
func (s Separator) Join(parts ...string) string {
	return strings.Join(parts, string(s))
}

func (s Separator) String() string {
	return string(s)
}

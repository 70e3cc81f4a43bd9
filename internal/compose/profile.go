package compose

import (
	"errors"
	"fmt"
	"slices"
)

var ErrUnknownProfile = errors.New("unknown engine profile")

// Profile holds the engine command-line fragments that users cannot
// configure. A new engine release that changes its CLI gets a new Profile.
type Profile struct {
	Version string

	// MemoryLimit is the JVM heap flag.
	MemoryLimit string
	// EntryPoint is the engine's main class.
	EntryPoint string
	// AnalysisMode selects whole-program, application-only analysis.
	AnalysisMode []string
	// CallGraph enables the call-graph algorithm.
	CallGraph []string
	// ReflectionLog prefixes the reflection-log option; the path is
	// appended to the last element.
	ReflectionLog []string
	// Precision holds the precision and output-format flags.
	Precision []string
	// JREArchives are the runtime archives taken from -jre-lib. The first
	// one must exist for the directory to be accepted.
	JREArchives []string
}

// ProfileV1 is the command line understood by the current engine.
var ProfileV1 = Profile{
	Version:       "1",
	MemoryLimit:   "-Xmx64G",
	EntryPoint:    "tailor.Driver",
	AnalysisMode:  []string{"-w", "-app"},
	CallGraph:     []string{"-p", "cg.spark", "enabled"},
	ReflectionLog: []string{"-p", "cg", "reflection-log:"},
	Precision:     []string{"-keep-line-number", "-src-prec", "c", "-f", "n"},
	JREArchives:   []string{"rt.jar", "jce.jar", "jsse.jar"},
}

var profiles = []Profile{ProfileV1}

// ProfileFor returns the profile registered under version. An empty
// version selects the latest profile.
func ProfileFor(version string) (Profile, error) {
	if version == "" {
		return profiles[len(profiles)-1], nil
	}
	idx := slices.IndexFunc(profiles, func(p Profile) bool { return p.Version == version })
	if idx < 0 {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, version)
	}
	return profiles[idx], nil
}

// reflectionLog returns the reflection-log fragments for path.
func (p Profile) reflectionLog(path string) []string {
	frags := slices.Clone(p.ReflectionLog)
	if len(frags) == 0 {
		return []string{path}
	}
	frags[len(frags)-1] += path
	return frags
}

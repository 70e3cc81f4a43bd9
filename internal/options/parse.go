// Package options turns the launcher's raw command-line tokens into a
// Record of engine options.
package options

import (
	"slices"

	"github.com/tailor-analysis/tailor/internal/pathsep"
)

// flagKeys maps each value-taking token to its key.
var flagKeys = map[string]Key{
	KeySCFile.Flag():        KeySCFile,
	KeyOutDir.Flag():        KeyOutDir,
	KeyExtendSC.Flag():      KeyExtendSC,
	KeyClasspath.Flag():     KeyClasspath,
	KeyJRELib.Flag():        KeyJRELib,
	KeyMainClass.Flag():     KeyMainClass,
	KeyReflectionLog.Flag(): KeyReflectionLog,
}

// Parse consumes the tokens that follow the program name and returns the
// resulting Record.
//
// Every option except -help takes the next token as its value, whatever it
// looks like. -cp values are split on sep and appended to the classpath
// collected so far; other options keep the last value given. Parsing stops
// at the first unknown token or at an option with no value left.
//
// A -help token anywhere short-circuits parsing: the returned Record holds
// only the help flag.
func Parse(tokens []string, sep pathsep.Separator) (*Record, error) {
	rec := newRecord()

	if slices.Contains(tokens, KeyHelp.Flag()) {
		rec.help = true
		return rec, nil
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		key, ok := flagKeys[tok]
		if !ok {
			return nil, &Error{Kind: ErrUnknownOption, Option: tok}
		}
		if i+1 >= len(tokens) {
			return nil, &Error{Kind: ErrMissingValue, Option: tok}
		}
		i++
		value := tokens[i]

		if key == KeyClasspath {
			rec.classpath = append(rec.classpath, sep.Split(value)...)
			rec.hasCP = true
			continue
		}
		rec.values[key] = value
	}

	return rec, nil
}

// Validate checks that every option the engine requires was supplied.
func Validate(rec *Record) error {
	if !rec.Has(KeySCFile) {
		return &Error{Kind: ErrMissingRequiredOption, Option: KeySCFile.Flag()}
	}
	return nil
}

package options

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

type usageEntry struct {
	flag  string
	arg   string
	lines []string
}

var usageEntries = []usageEntry{
	{flag: KeyHelp.Flag(), lines: []string{"Print this message"}},
	{flag: KeySCFile.Flag(), arg: "<file>", lines: []string{"The file containing the sequential criteria"}},
	{flag: KeyExtendSC.Flag(), arg: "<true or false>", lines: []string{"Enable or disable SC extension (default value: true)"}},
	{flag: KeyOutDir.Flag(), arg: "<dir>", lines: []string{
		"The directory containing analysis results",
		"(default value: output)",
	}},
	{flag: KeyClasspath.Flag(), arg: "<jar or dir>", lines: []string{
		"The application jar file or the directory containing",
		"the classes of the application. Use path separator",
		`(":" on Linux/Unix/Mac OS or ";" on Windows) while`,
		"specifying multiple items",
	}},
	{flag: KeyJRELib.Flag(), arg: "<dir>", lines: []string{
		"The directory containing the JRE to be used",
		"for whole-program analysis",
	}},
	{flag: KeyMainClass.Flag(), arg: "<class>", lines: []string{"Name of the main class of the application"}},
	{flag: KeyReflectionLog.Flag(), arg: "<file>", lines: []string{
		"The reflection log file for the application for",
		"resolving reflective call sites",
	}},
}

// Usage writes the option summary shown for -help.
func Usage(w io.Writer, program string) error {
	usageTable := table.NewWriter()
	style := table.StyleDefault
	style.Options = table.Options{}
	usageTable.SetStyle(style)

	for i, e := range usageEntries {
		name := e.flag
		if e.arg != "" {
			name += " " + e.arg
		}
		usageTable.AppendRow(table.Row{name, strings.Join(e.lines, "\n")})
		if i < len(usageEntries)-1 {
			usageTable.AppendRow(table.Row{"", ""})
		}
	}

	if _, err := fmt.Fprintf(w, "Usage: %s [options]\n\n", program); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, usageTable.Render())
	return err
}

package cmd

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/jinzhu/inflection"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"github.com/cmmoran/autoctor/pkg/autoctor"
)

func initOutput() {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		pterm.DisableStyling()
	}
}

// count renders "1 constructor", "3 constructors".
func count(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %s", n, inflection.Plural(noun))
}

// printDiagnostics prints one line per diagnostic in the usual compiler
// format, with paths relative to the module root.
func printDiagnostics(res *autoctor.Result, diags []autoctor.Diagnostic) {
	for _, d := range diags {
		loc := d.Location
		if res != nil && loc.Filename != "" {
			loc.Filename = res.Rel(loc.Filename)
		}
		pterm.Printf("%s: %s %s: %s\n",
			pterm.Gray(loc.String()),
			pterm.Yellow(d.Severity.String()),
			pterm.LightMagenta(string(d.Code)),
			d.Message)
	}
}

func printFiles(prefix string, files []string) {
	for _, f := range files {
		pterm.Printf("  %s %s\n", prefix, f)
	}
}

func printError(err error) {
	pterm.Error.Println(err.Error())
	for _, hint := range errors.GetAllHints(err) {
		pterm.Info.Println(hint)
	}
}

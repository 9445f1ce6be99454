package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cmmoran/autoctor/pkg/action/check"
)

var errOutOfDate = errors.New("generated constructors are out of date")

func init() {
	rootCmd.AddCommand(NewCheckCommand())
}

func NewCheckCommand() *cobra.Command {
	var quiet bool

	// checkCmd represents the autoctor check command
	var checkCmd = &cobra.Command{
		Use:   "check",
		Short: "verify generated constructors",
		Long:  "Compare generated constructors on disk with what generate would write; exits non-zero on drift",
		RunE: func(c *cobra.Command, args []string) error {
			r, err := check.Check(c.Context(), options())
			if err != nil {
				return err
			}
			printDiagnostics(r.Result, r.Diagnostics)
			if r.UpToDate() {
				pterm.Success.Printf("%s up to date\n", count(r.Checked, "constructor"))
				return nil
			}
			for _, d := range r.Drifts {
				switch {
				case d.Missing:
					pterm.Warning.Printf("%s is missing\n", d.File)
				case d.Stale:
					pterm.Warning.Printf("%s is no longer generated\n", d.File)
				default:
					pterm.Warning.Printf("%s differs\n", d.File)
					if !quiet {
						pterm.Println(d.Diff)
					}
				}
			}
			return errors.WithHint(
				errors.Wrapf(errOutOfDate, "%s", count(len(r.Drifts), "file")),
				"run autoctor generate",
			)
		},
	}
	checkCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print diffs")
	return checkCmd
}

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cmmoran/autoctor/pkg/action/generate"
)

func init() {
	rootCmd.AddCommand(NewGenerateCommand())
}

func NewGenerateCommand() *cobra.Command {
	// generateCmd represents the autoctor generate command
	var generateCmd = &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "generate constructors",
		Long:    "Write a NewX constructor for every marked struct type and remove the ones no longer needed",
		RunE: func(c *cobra.Command, args []string) error {
			s, err := generate.Generate(c.Context(), options())
			if err != nil {
				return err
			}
			printSummary(s)
			return nil
		},
	}
	return generateCmd
}

func printSummary(s *generate.Summary) {
	printDiagnostics(s.Result, s.Diagnostics)
	printFiles(pterm.Green("+"), s.Written)
	printFiles(pterm.Red("-"), s.Removed)
	pterm.Success.Printf("%s written, %s unchanged, %s removed\n",
		count(len(s.Written), "constructor"),
		count(len(s.Unchanged), "constructor"),
		count(len(s.Removed), "constructor"))
}

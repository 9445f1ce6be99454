package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cmmoran/autoctor/pkg/action/generate"
	"github.com/cmmoran/autoctor/pkg/action/watch"
)

func init() {
	rootCmd.AddCommand(NewWatchCommand())
}

func NewWatchCommand() *cobra.Command {
	var debounce time.Duration

	// watchCmd represents the autoctor watch command
	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "regenerate on change",
		Long:  "Regenerate constructors whenever Go sources change, until interrupted",
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := watch.New(options(), debounce, func(s *generate.Summary, err error) {
				if err != nil {
					printError(err)
					return
				}
				printSummary(s)
			})
			if err != nil {
				return err
			}
			pterm.Info.Println("watching for changes, press Ctrl+C to stop")
			return w.Run(ctx)
		},
	}
	watchCmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before regenerating")
	return watchCmd
}

package ui

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/ics"
)

const maxExportWeeks = 52

func (a *App) exportCmd() *cobra.Command {
	var (
		from   string
		weeks  int
		out    string
		toClip bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions as iCalendar",
		Long: `Write added events and planned sessions of one or more weeks as an
iCalendar (.ics) file that calendar apps can import.`,
		Example: `  athro export --weeks=4 --out=study.ics
  athro export --clipboard`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if weeks < 1 || weeks > maxExportWeeks {
				return fmt.Errorf("--weeks must be between 1 and %d", maxExportWeeks)
			}
			if err := a.ensureService(); err != nil {
				return err
			}
			day, err := dateutil.ParseRelativeDate(from, a.today())
			if err != nil {
				return err
			}

			week := a.svc.WeekOf(day)
			events, err := a.svc.EventsBetween(contextOf(cmd), a.session(), week.Start, week.Start.AddDate(0, 0, 7*weeks))
			if err != nil {
				return fmt.Errorf("loading events: %w", err)
			}
			doc := ics.String(events, a.now())

			switch {
			case toClip:
				if err := clipboard.WriteAll(doc); err != nil {
					return fmt.Errorf("copying to clipboard: %w", err)
				}
				fmt.Fprintf(a.out, "Copied %d events to the clipboard\n", len(events))
			case out != "" && out != "-":
				if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", out, err)
				}
				fmt.Fprintf(a.out, "Wrote %d events to %s\n", len(events), out)
			default:
				fmt.Fprint(a.out, doc)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Any date in the first week (default: this week)")
	cmd.Flags().IntVar(&weeks, "weeks", 1, "Number of weeks to export")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&toClip, "clipboard", false, "Copy to the clipboard instead")
	return cmd
}

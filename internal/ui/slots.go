package ui

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/athro-ai/athro/internal/plan"
	"github.com/athro-ai/athro/internal/study"
)

func (a *App) slotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Manage preferred study slots",
		Long: `Preferred study slots are weekly templates: "2 sessions of 30 minutes
every Wednesday from 16:00". They turn into planned sessions in every week.`,
	}
	cmd.AddCommand(a.slotsListCmd())
	cmd.AddCommand(a.slotsSetCmd())
	cmd.AddCommand(a.slotsPresetCmd())
	cmd.AddCommand(a.slotsImportCmd())
	cmd.AddCommand(a.slotsClearCmd())
	return cmd
}

func (a *App) slotsListCmd() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List preferred study slots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureService(); err != nil {
				return err
			}
			slots, err := a.svc.Slots(contextOf(cmd), a.session())
			if err != nil {
				return fmt.Errorf("listing slots: %w", err)
			}

			if asYAML {
				return plan.FromSlots(a.session().UserID, slots).Encode(a.out)
			}
			if len(slots) == 0 {
				fmt.Fprintln(a.out, "No preferred study slots. Try \"athro slots preset 2x60 --days mon,wed\".")
				return nil
			}
			printSlots(a, slots)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as a study plan document")
	return cmd
}

func printSlots(a *App, slots []*study.PreferredStudySlot) {
	total := 0
	for _, s := range slots {
		fmt.Fprintf(a.out, "  %-10s %d x %-5s from %02d:00  %s  %s\n",
			study.WeekdayName(s.DayOfWeek), s.SlotCount, FormatDuration(s.SlotDurationMinutes),
			s.PreferredStartHour, formatStats(FormatDuration(s.DailyMinutes())), formatMuted(s.ID))
		total += s.DailyMinutes()
	}
	fmt.Fprintf(a.out, "  Weekly: %s\n", formatStats(FormatDuration(total)))
}

func (a *App) slotsSetCmd() *cobra.Command {
	var startHour int

	cmd := &cobra.Command{
		Use:   "set [day] [count]x[minutes]",
		Short: "Set the slot of one weekday",
		Long: `Replace the slots of one weekday with a single template. Other days
are kept.`,
		Example: `  athro slots set wednesday 2x30 --start-hour=16
  athro slots set 6 1x120 --start-hour=10`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureService(); err != nil {
				return err
			}
			day, err := study.ParseWeekday(args[0])
			if err != nil {
				return err
			}
			preset, err := study.ParsePreset(args[1])
			if err != nil {
				return err
			}

			saved, err := a.svc.ApplyPreset(contextOf(cmd), a.session(), day, preset, startHour)
			if err != nil {
				return fmt.Errorf("saving slots: %w", err)
			}
			printSlots(a, saved)
			return nil
		},
	}
	cmd.Flags().IntVar(&startHour, "start-hour", 16, "Preferred start hour (0-23)")
	return cmd
}

func (a *App) slotsPresetCmd() *cobra.Command {
	var (
		days      string
		startHour int
	)

	cmd := &cobra.Command{
		Use:   "preset [name]",
		Short: "Apply a preset to several weekdays",
		Long: `Apply a preset ("1x120", "2x60", "4x30", "6x20" or any count x minutes)
to each of the given weekdays. Days not listed are kept.`,
		Example: `  athro slots preset 2x60 --days=mon,wed,fri --start-hour=17`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureService(); err != nil {
				return err
			}
			preset, err := study.ParsePreset(args[0])
			if err != nil {
				return err
			}
			isoDays, err := parseDays(days)
			if err != nil {
				return err
			}

			var saved []*study.PreferredStudySlot
			for _, day := range isoDays {
				saved, err = a.svc.ApplyPreset(contextOf(cmd), a.session(), day, preset, startHour)
				if err != nil {
					return fmt.Errorf("applying preset to %s: %w", study.WeekdayName(day), err)
				}
			}
			printSlots(a, saved)
			return nil
		},
	}
	cmd.Flags().StringVar(&days, "days", "mon,tue,wed,thu,fri", "Comma-separated weekdays")
	cmd.Flags().IntVar(&startHour, "start-hour", 16, "Preferred start hour (0-23)")
	return cmd
}

func parseDays(s string) ([]int, error) {
	var days []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, err := study.ParseWeekday(part)
		if err != nil {
			return nil, err
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return nil, &study.ValidationError{Field: "days", Message: "no weekdays given"}
	}
	return days, nil
}

func (a *App) slotsImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace all slots with a study plan file",
		Long: `Load a YAML study plan and replace every preferred slot with it.

  slots:
    - day: wednesday   # name or ISO number
      preset: 2x60     # or count + duration_minutes
      start_hour: 16`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := plan.Load(args[0])
			if err != nil {
				return err
			}
			slots, err := doc.Templates(a.session().UserID)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(a.out, "%s: %d slots\n", args[0], len(slots))
				printSlots(a, slots)
				return nil
			}

			if err := a.ensureService(); err != nil {
				return err
			}
			saved, err := a.svc.ReplaceSlots(contextOf(cmd), a.session(), slots)
			if err != nil {
				return fmt.Errorf("saving slots: %w", err)
			}
			fmt.Fprintf(a.out, "Imported %d slots from %s\n", len(saved), args[0])
			printSlots(a, saved)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and print without saving")
	return cmd
}

func (a *App) slotsClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every preferred slot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes && !promptYesNo("Remove all preferred study slots?") {
				return nil
			}
			if err := a.ensureService(); err != nil {
				return err
			}
			if err := a.svc.ClearSlots(contextOf(cmd), a.session()); err != nil {
				return fmt.Errorf("clearing slots: %w", err)
			}
			fmt.Fprintln(a.out, "Cleared all preferred study slots.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (a *App) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the slot presets",
		Run: func(_ *cobra.Command, _ []string) {
			for _, p := range study.Presets {
				fmt.Fprintf(a.out, "  %-6s %d x %-5s = %s\n",
					p.Name, p.SlotCount, FormatDuration(p.DurationMinutes), FormatDuration(p.TotalMinutes()))
			}
			durations := make([]string, 0, len(study.DurationOptions))
			for _, d := range study.DurationOptions {
				durations = append(durations, FormatDuration(d))
			}
			fmt.Fprintf(a.out, "  %s\n", formatMuted("Durations: "+strings.Join(durations, ", ")))
		},
	}
}

package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/athro-ai/athro/internal/config"
	"github.com/athro-ai/athro/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  athro config`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInteractive(a.out)
		},
	}
}

func runConfigInteractive(w io.Writer) error {
	configPath := config.DefaultConfigPath()
	fmt.Fprintf(w, "Config file: %s\n\n", configPath)

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, fileErr := os.Stat(configPath)
	if os.IsNotExist(fileErr) {
		fmt.Fprintln(w, "No config file found. Creating with default values...")
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(w, "Created %s\n\n", configPath)
	}

	printConfig(w, cfg)

	if !promptYesNo("\nWould you like to edit the configuration?") {
		return nil
	}

	reader := bufio.NewReader(os.Stdin)

	cfg.Account.UserID = promptValue(reader, "User id", cfg.Account.UserID)
	cfg.Schedule.StudyStart = promptValue(reader, "Study start", cfg.Schedule.StudyStart)
	cfg.Schedule.StudyEnd = promptValue(reader, "Study end (last row)", cfg.Schedule.StudyEnd)
	cfg.Schedule.IntervalMinutes = promptInt(reader, "Grid interval (minutes)", cfg.Schedule.IntervalMinutes)
	cfg.Schedule.Timezone = promptValue(reader, "Timezone (empty for local)", cfg.Schedule.Timezone)
	cfg.Schedule.Expansion = promptValue(reader, "Slot expansion (all, first)", cfg.Schedule.Expansion)
	cfg.Schedule.MaxDailyMinutes = promptInt(reader, "Daily budget (minutes, 0 disables)", cfg.Schedule.MaxDailyMinutes)
	cfg.Schedule.Subjects = promptSlice(reader, "Subjects (comma-separated)", cfg.Schedule.Subjects)
	cfg.Storage.DBPath = promptValue(reader, "Database path", cfg.Storage.DBPath)
	cfg.UI.Theme = promptTheme(reader, cfg.UI.Theme)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(w, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[account]")
	fmt.Fprintf(w, "  user_id           = %s\n", cfg.Account.UserID)
	fmt.Fprintln(w, "\n[schedule]")
	fmt.Fprintf(w, "  study_start       = %s\n", cfg.Schedule.StudyStart)
	fmt.Fprintf(w, "  study_end         = %s\n", cfg.Schedule.StudyEnd)
	fmt.Fprintf(w, "  interval_minutes  = %d\n", cfg.Schedule.IntervalMinutes)
	if cfg.Schedule.Timezone != "" {
		fmt.Fprintf(w, "  timezone          = %s\n", cfg.Schedule.Timezone)
	}
	fmt.Fprintf(w, "  expansion         = %s\n", cfg.Schedule.Expansion)
	fmt.Fprintf(w, "  max_daily_minutes = %d\n", cfg.Schedule.MaxDailyMinutes)
	fmt.Fprintf(w, "  subjects          = %s\n", strings.Join(cfg.Schedule.Subjects, ", "))
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  driver            = %s\n", cfg.Storage.Driver)
	if cfg.Storage.Driver == config.DriverPostgres {
		fmt.Fprintln(w, "  dsn               = (set)")
	} else {
		fmt.Fprintf(w, "  db_path           = %s\n", cfg.Storage.DBPath)
	}
	fmt.Fprintln(w, "\n[server]")
	fmt.Fprintf(w, "  listen            = %s\n", cfg.Server.Listen)
	if cfg.Server.JWTSecret != "" {
		fmt.Fprintln(w, "  jwt_secret        = (set)")
	}
	fmt.Fprintln(w, "\n[reminders]")
	fmt.Fprintf(w, "  cron              = %s\n", cfg.Reminders.Cron)
	fmt.Fprintf(w, "  lead_minutes      = %d\n", cfg.Reminders.LeadMinutes)
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  theme             = %s\n", cfg.UI.Theme)
}

func promptYesNo(question string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(reader *bufio.Reader, label, current string) string {
	if current == "" {
		fmt.Printf("  %s: ", label)
	} else {
		fmt.Printf("  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptInt(reader *bufio.Reader, label string, current int) int {
	for {
		value := promptValue(reader, label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		fmt.Printf("  %q is not a number\n", value)
	}
}

func promptSlice(reader *bufio.Reader, label string, current []string) []string {
	fmt.Printf("  %s [%s]: ", label, strings.Join(current, ", "))
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func promptTheme(reader *bufio.Reader, current string) string {
	options := strings.Join(theme.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(promptValue(reader, label, current))
		if theme.IsAvailable(value) {
			return value
		}
		fmt.Printf("  Invalid theme %q. Available: %s\n", value, options)
	}
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fenestra-io/configurator/internal/adapters/store"
	"github.com/fenestra-io/configurator/internal/diagnostics"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and dependencies",
	Long:  "Verify the configuration, probe vendor reachability and report host resources.",
	RunE:  runDoctor,
}

var doctorJSON bool

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false,
		"Emit the report as JSON")
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := []diagnostics.DoctorOption{}
	if configStore, serr := store.New(cfg.Store.Type, cfg.Store.Path); serr == nil {
		defer func() { _ = store.CloseStore(configStore) }()
		opts = append(opts, diagnostics.WithStore(configStore))
	}

	report := diagnostics.NewDoctor(cfg, opts...).Run(cmd.Context())

	if doctorJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	if !report.Healthy() {
		return fmt.Errorf("one or more checks failed")
	}
	return nil
}

func printReport(r *diagnostics.Report) {
	fmt.Println("Host")
	fmt.Printf("  go        %s (%s)\n", r.Host.GoVersion, r.Host.GOOS)
	fmt.Printf("  cpu       %d cores, %.0f%% busy\n", r.Host.CPUCores, r.Host.CPUPercent)
	fmt.Printf("  memory    %.0f / %.0f MB (%.0f%%)\n", r.Host.MemUsedMB, r.Host.MemTotalMB, r.Host.MemPercent)
	fmt.Printf("  disk      %.1f GB free\n", r.Host.DiskFreeGB)
	fmt.Println()

	fmt.Println("Checks")
	for _, c := range r.Checks {
		icon := "✓"
		switch c.Status {
		case diagnostics.StatusWarn:
			icon = "⚠"
		case diagnostics.StatusFail:
			icon = "✗"
		case diagnostics.StatusSkip:
			icon = "○"
		}
		fmt.Printf("  %s %-8s %s\n", icon, c.Name, c.Message)
	}
}

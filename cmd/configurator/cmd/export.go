package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fenestra-io/configurator/internal/adapters/store"
	"github.com/fenestra-io/configurator/internal/clip"
)

var exportCmd = &cobra.Command{
	Use:   "export [name]",
	Short: "Print or copy a saved configuration",
	Long: `Print a saved configuration as JSON, or list all saved configurations
when no name is given.

Examples:
  # List saved configurations
  configurator export

  # Print one to stdout
  configurator export kitchen-window > kitchen-window.json

  # Copy it to the clipboard
  configurator export kitchen-window --copy`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var exportCopy bool

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().BoolVar(&exportCopy, "copy", false,
		"Copy the JSON to the clipboard instead of printing it")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	configStore, err := store.New(cfg.Store.Type, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening configuration store: %w", err)
	}
	defer func() { _ = store.CloseStore(configStore) }()

	if len(args) == 0 {
		summaries, err := configStore.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("No saved configurations.")
			return nil
		}
		for _, s := range summaries {
			fmt.Printf("%-30s %-12s %s\n", s.Name, s.ModelCode, s.Timestamp.Format("2006-01-02 15:04"))
		}
		return nil
	}

	saved, err := configStore.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return err
	}

	if !exportCopy {
		fmt.Println(string(data))
		return nil
	}

	result, err := clip.WriteAll(string(data))
	if err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	switch result.Method {
	case clip.MethodFile:
		fmt.Fprintf(os.Stderr, "clipboard unavailable, wrote %s\n", result.FilePath)
	default:
		fmt.Fprintf(os.Stderr, "copied %q to clipboard (%s)\n", args[0], result.Method)
	}
	return nil
}

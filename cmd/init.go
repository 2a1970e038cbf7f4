package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create empty stores for a location",
	Long: `Creates data/<location>/segments.json and regions.json as empty
collections. Stores must exist before a crawl; existing files are left
untouched.`,

	RunE: runInit,
}

func runInit(_ *cobra.Command, _ []string) error {
	dir := filepath.Dir(cfg.SegmentsPath())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create data dir %s: %w", dir, err)
	}
	for _, path := range []string{cfg.SegmentsPath(), cfg.RegionsPath()} {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("exists   %s\n", path)
			continue
		}
		if err := os.WriteFile(path, []byte("[]\n"), 0o600); err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		fmt.Printf("created  %s\n", path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}

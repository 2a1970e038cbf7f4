package cmd

import (
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/pacelab/segscout/internal/store"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show stored segments ranked by pace",
	Long: `Prints the stored segments slowest-first by leaderboard pace.
Segments not yet enriched sort last. Paces are tinted with the same
colour ramp the map view uses.`,

	RunE: runList,
}

func runList(_ *cobra.Command, _ []string) error {
	segments, err := store.OpenSegments(cfg.SegmentsPath(), logger)
	if err != nil {
		return fmt.Errorf("open segment store: %w", err)
	}
	defer closeStore(segments.Close)

	ranked := segments.RankedView()
	if listJSON {
		return printJSON(ranked)
	}

	for _, r := range ranked {
		pace := "     -"
		if r.Pace != nil {
			pace = fmt.Sprintf("%6.1f", *r.Pace)
		}
		line := fmt.Sprintf("%-45s %8.0fm %7s min/km  %s", r.Name, r.DistanceM, pace, r.URL)
		if r.Pace != nil {
			color.HEX(r.Colour[1:]).Println(line)
		} else {
			fmt.Println(line)
		}
	}
	return nil
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(listCmd)
}

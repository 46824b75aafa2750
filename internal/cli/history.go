package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arvid/lumen/pkg/telemetry"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs from the telemetry log",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer log.Close()

	store := telemetry.NewStore(cfg.Telemetry.Path, log.GetZerolog())
	records, err := store.LoadRecent(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load run history: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	for _, rec := range records {
		status := "completed"
		if rec.Aborted {
			status = "aborted"
		}
		fmt.Printf("%s  %-12s %-28s %6d tok  $%.4f  %5dms  %s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.AgentName,
			rec.Model,
			rec.TotalTokens,
			rec.CostUSD,
			rec.LatencyMs,
			status,
		)
		if rec.ExperimentID != "" || rec.TaskLabel != "" {
			fmt.Printf("    experiment=%s label=%s\n", rec.ExperimentID, rec.TaskLabel)
		}
	}

	return nil
}

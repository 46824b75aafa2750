package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsForceRefresh bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the selectable models",
	Long: `List the models available for agent builds. The list comes from the
provider's model-listing endpoint when reachable and from a built-in
fallback otherwise.`,
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsForceRefresh, "refresh", false, "bypass the cache and fetch the list now")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer log.Close()

	svc, refresher, err := newCatalog(cfg, log.GetZerolog())
	if err != nil {
		return err
	}
	if refresher != nil {
		defer refresher.Stop()
	}

	entries, source := svc.GetModels(cmd.Context(), modelsForceRefresh)

	fmt.Printf("Models (%s):\n", source)
	for _, entry := range entries {
		line := fmt.Sprintf("  %-40s %s", entry.ID, entry.DisplayName)
		if entry.InputPricePer1K != nil && entry.OutputPricePer1K != nil {
			line += fmt.Sprintf("  ($%.4f in / $%.4f out per 1k)", *entry.InputPricePer1K, *entry.OutputPricePer1K)
		}
		fmt.Println(line)
	}

	return nil
}

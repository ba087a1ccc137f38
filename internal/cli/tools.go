package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arlo-dev/capgate/pkg/registry"
)

var toolsTier string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List registered capabilities visible to a tier",
	Long: `List capabilities registered in the gateway. The --tier flag filters
the listing to capabilities the given tier is authorized to see; an empty
tier lists everything.`,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().StringVar(&toolsTier, "tier", "", "authorization tier to list for (empty lists all)")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	gw, err := setup()
	if err != nil {
		return err
	}
	defer gw.close()

	var visible map[string]registry.Descriptor
	if toolsTier != "" {
		visible = gw.registry.ListForTier(registry.Tier(toolsTier))
	}

	printed := 0
	for _, name := range gw.registry.Names() {
		entry, ok := gw.registry.Lookup(name)
		if !ok {
			continue
		}
		if visible != nil {
			if _, authorized := visible[name]; !authorized {
				continue
			}
		}

		tiers := make([]string, 0, len(entry.Tiers))
		for _, t := range entry.Tiers {
			tiers = append(tiers, string(t))
		}
		line := fmt.Sprintf("%-14s tiers=[%s]  %s", entry.Name, strings.Join(tiers, ","), entry.Description)
		if entry.Deprecated != nil {
			line += fmt.Sprintf("  (DEPRECATED: %s", entry.Deprecated.Reason)
			if entry.Deprecated.Replacement != "" {
				line += fmt.Sprintf(", use %s", entry.Deprecated.Replacement)
			}
			line += ")"
		}
		fmt.Println(line)
		printed++
	}

	if printed == 0 {
		fmt.Println("No capabilities visible.")
	}
	return nil
}

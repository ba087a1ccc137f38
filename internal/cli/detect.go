package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show the detected host platform profile",
	Long:  `Detect the host operating system, distribution family, and architecture.`,
	RunE:  runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	gw, err := setup()
	if err != nil {
		return err
	}
	defer gw.close()

	data, err := json.MarshalIndent(gw.profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

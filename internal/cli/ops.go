package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arlo-dev/capgate/pkg/oscmd"
)

var opsAll bool

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List logical operations and their resolution on this host",
	Long: `List the logical operation vocabulary. By default only operations
supported on the detected platform are shown, together with the command
they resolve to. Use --all to include unsupported operations.`,
	RunE: runOps,
}

func init() {
	opsCmd.Flags().BoolVar(&opsAll, "all", false, "include operations with no mapping for this host")
	rootCmd.AddCommand(opsCmd)
}

func runOps(cmd *cobra.Command, args []string) error {
	gw, err := setup()
	if err != nil {
		return err
	}
	defer gw.close()

	for _, op := range gw.resolver.Operations() {
		resolved, err := gw.resolver.Resolve(op, gw.profile, nil)
		if err != nil {
			if opsAll {
				fmt.Printf("%-18s (unavailable: %v)\n", op, err)
			}
			continue
		}
		fmt.Printf("%-18s [%s] %s\n", op, resolved.PlatformKey, strings.Join(resolved.Tokens, " "))
	}
	return nil
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <operation> [args...]",
	Short: "Resolve a logical operation without executing it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	gw, err := setup()
	if err != nil {
		return err
	}
	defer gw.close()

	resolved, err := gw.resolver.Resolve(oscmd.Operation(args[0]), gw.profile, args[1:])
	if err != nil {
		return err
	}
	fmt.Printf("[%s] %s\n", resolved.PlatformKey, strings.Join(resolved.Tokens, " "))
	return nil
}

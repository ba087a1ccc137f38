package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arlo-dev/capgate/pkg/registry"
)

var (
	invokeTier string
	invokeArgs string
	invokeSync bool
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <capability>",
	Short: "Invoke a registered capability",
	Long: `Invoke a capability through the gateway bridge and print the
normalized result as JSON. Arguments are passed as a JSON object via --args.`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoke,
}

func init() {
	invokeCmd.Flags().StringVar(&invokeTier, "tier", "admin", "authorization tier to invoke as")
	invokeCmd.Flags().StringVar(&invokeArgs, "args", "{}", "capability arguments as a JSON object")
	invokeCmd.Flags().BoolVar(&invokeSync, "sync", false, "use the synchronous path bounded by the ceiling timeout")
	rootCmd.AddCommand(invokeCmd)
}

func runInvoke(cmd *cobra.Command, cmdArgs []string) error {
	gw, err := setup()
	if err != nil {
		return err
	}
	defer gw.close()

	var args map[string]any
	if err := json.Unmarshal([]byte(invokeArgs), &args); err != nil {
		return fmt.Errorf("invalid --args JSON: %w", err)
	}

	name := cmdArgs[0]
	tier := registry.Tier(invokeTier)

	var result any
	if invokeSync {
		result = gw.bridge.InvokeSync(name, tier, args)
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		result = gw.bridge.Invoke(ctx, name, tier, args)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

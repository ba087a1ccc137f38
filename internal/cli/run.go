package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arlo-dev/capgate/pkg/oscmd"
)

var (
	runTimeout int
	runCwd     string
	runRaw     bool
)

var runCmd = &cobra.Command{
	Use:   "run <operation|command> [args...]",
	Short: "Resolve and execute a logical operation",
	Long: `Resolve a logical operation for the detected platform and execute
it, printing captured output and the exit code. With --raw the arguments are
treated as a literal command line and screened against the destructive
command deny-list instead of the operation table.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runTimeout, "timeout", 0, "timeout in seconds (0 uses the executor default)")
	runCmd.Flags().StringVar(&runCwd, "cwd", "", "working directory")
	runCmd.Flags().BoolVar(&runRaw, "raw", false, "execute a raw command line instead of a logical operation")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	gw, err := setup()
	if err != nil {
		return err
	}
	defer gw.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timeout := time.Duration(runTimeout) * time.Second

	tokens := args
	if !runRaw {
		resolved, err := gw.resolver.Resolve(oscmd.Operation(args[0]), gw.profile, args[1:])
		if err != nil {
			return err
		}
		tokens = resolved.Tokens
	}

	var result any
	if runRaw {
		result = gw.executor.RunRaw(ctx, tokens, timeout, runCwd)
	} else {
		result = gw.executor.Run(ctx, tokens, timeout, runCwd)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

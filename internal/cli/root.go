package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	outputJSON bool
	plainOut   bool
	debugLogs  bool
)

// Execute runs the root cobra command. An interrupt cancels the command's
// context, which stops a running server.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mcserver",
		Short:         "Download, configure and run Minecraft Java Edition servers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to mcserver.yaml (default ./mcserver.yaml)")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVar(&plainOut, "plain", false, "Disable interactive progress output")
	cmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "Log at debug level")

	cmd.AddCommand(newVersionsCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

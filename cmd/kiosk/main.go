package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// A second interrupt kills a kiosk blocked on terminal input.
		<-ctx.Done()
		stop()
	}()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "kiosk",
		Short:         "Delegate feedback kiosk",
		Long:          "Collects delegate feedback at the venue and keeps unsent submissions until the server acknowledges them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or config.yaml)")

	app := &kioskApp{configPath: &configPath}
	root.AddCommand(
		app.runCommand(),
		app.submitCommand(),
		app.syncCommand(),
		app.pendingCommand(),
		app.clearCommand(),
		app.reportCommand(),
		app.exportCommand(),
		hashPinCommand(),
	)
	return root
}

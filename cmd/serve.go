package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thaw-dev/thaw-cli/internal/config"
	"github.com/thaw-dev/thaw-cli/internal/devcontext"
	"github.com/thaw-dev/thaw-cli/internal/devloop"
	"github.com/thaw-dev/thaw-cli/internal/devserver"
	"github.com/thaw-dev/thaw-cli/internal/logging"
)

var serveOpen bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dev server with hot reload",
}

var serveCSRCmd = &cobra.Command{
	Use:   "csr",
	Short: "Run the CSR dev server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, devcontext.CSR)
	},
}

var serveSSRCmd = &cobra.Command{
	Use:   "ssr",
	Short: "Run the SSR dev server and supervise the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, devcontext.SSR)
	},
}

func init() {
	serveCmd.PersistentFlags().BoolVar(&serveOpen, "open", false, "open the dev server URL in a browser once it is ready")
	serveCmd.AddCommand(serveCSRCmd)
	serveCmd.AddCommand(serveSSRCmd)
}

func runServe(cmd *cobra.Command, mode devcontext.ServerMode) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	logCh := logging.NewChannel()
	consumer := logging.NewConsumer()

	open := cfg.Server.Open
	if cmd.Flags().Changed("open") {
		open = serveOpen
	}
	url := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		for msg := range logCh {
			consumer.RenderAndCheckReady(msg, open, func() {
				_ = devserver.OpenBrowser(url, os.Getenv("BROWSER"))
			})
		}
	}()
	defer close(logCh)

	dctx := devcontext.New(cfg, cwd, logCh)

	loop, err := devloop.New(dctx, mode, nil, true)
	if err != nil {
		return fmt.Errorf("building dev loop: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "serving %s at %s\n", mode, url)

	return loop.Run(ctx)
}

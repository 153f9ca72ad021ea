package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/thaw-dev/thaw-cli/internal/config"
	"github.com/thaw-dev/thaw-cli/internal/devcontext"
	"github.com/thaw-dev/thaw-cli/internal/logging"
	"github.com/thaw-dev/thaw-cli/internal/pipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run a one-shot production build",
}

var buildCSRCmd = &cobra.Command{
	Use:   "csr",
	Short: "Build the client-side-rendered bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, devcontext.CSR)
	},
}

var buildSSRCmd = &cobra.Command{
	Use:   "ssr",
	Short: "Build the server-side-rendered bundle and server binary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, devcontext.SSR)
	},
}

func init() {
	buildCmd.AddCommand(buildCSRCmd)
	buildCmd.AddCommand(buildSSRCmd)
}

func runBuild(cmd *cobra.Command, mode devcontext.ServerMode) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	cfg.Release = true

	logCh := logging.NewChannel()
	consumer := logging.NewConsumer()
	go consumer.Run(logCh)
	defer close(logCh)

	dctx := devcontext.New(cfg, cwd, logCh)
	p := pipeline.New(dctx, nil)

	var result *pipeline.Result
	if mode == devcontext.SSR {
		result, err = p.BuildSSR(ctx)
	} else {
		result, err = p.BuildCSR(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "built %d asset(s) into %s\n", len(result.Manifest.Assets()), dctx.ClientOutDir(mode))
	return nil
}

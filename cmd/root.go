// Package cmd provides the command-line interface for the Thaw dev-loop
// core: `thaw build` and `thaw serve`, each with a `csr`/`ssr` variant.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "thaw",
	Short: "Dev server and build orchestrator for WASM web apps",
	Long: `thaw drives the build pipeline, file watcher, and dev servers for a
web application compiled to WebAssembly, in both client-side-rendering (CSR)
and server-side-rendering (SSR) topologies.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	envFile string
	addr    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "todod",
		Short:         "Todo list HTTP service",
		Long:          "todod serves a JSON todo list API backed by PostgreSQL.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Create the schema if needed and serve HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	serveCmd.Flags().StringVar(&opts.addr, "addr", "", "listen address, overrides HTTP_ADDR and PORT")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	bootstrapCmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the todo table and index, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(cmd.Context(), opts)
		},
	}

	rootCmd.AddCommand(serveCmd, bootstrapCmd)
	return rootCmd
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "helpdeskctl",
		Short: "Operator tools for the helpdesk service",
		Long: `helpdeskctl previews notification templates and SLA calculations
against a ticket JSON file, using the same rules file as the service.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.TemplateCmd())
	rootCmd.AddCommand(cli.SLACmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

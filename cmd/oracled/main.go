package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/pageoracle/internal/cli"
	"github.com/cloo-solutions/pageoracle/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "oracled",
		Short: "Page oracle daemon",
		Long:  "Page oracle daemon for serving questions about a PDF and managing its index and history store",
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IndexCmd())
	rootCmd.AddCommand(admin.HistoryCmd())
	rootCmd.AddCommand(admin.UploadCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package client

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// HealthResponse represents the health API response.
type HealthResponse struct {
	Status    string `json:"status"`
	History   string `json:"history"`
	Lifecycle string `json:"lifecycle"`
}

// HealthCmd creates the health command.
func HealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runHealth(cmd.OutOrStdout(), NewAPIClientWithCmd(cmd), outputJSON)
		},
	}
}

func runHealth(w io.Writer, api *APIClient, outputJSON bool) error {
	var resp HealthResponse
	if err := api.Get("/health", &resp); err != nil {
		return err
	}

	if outputJSON {
		output, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(w, string(output))
		return nil
	}

	fmt.Fprintf(w, "Status:    %s\n", resp.Status)
	fmt.Fprintf(w, "History:   %s\n", resp.History)
	fmt.Fprintf(w, "Lifecycle: %s\n", resp.Lifecycle)
	return nil
}

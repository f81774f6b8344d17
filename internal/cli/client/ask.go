package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// AskRequest represents the ask API request.
type AskRequest struct {
	Text string `json:"text"`
}

// AskResponse represents the ask API response.
type AskResponse struct {
	Answer  string `json:"answer"`
	Sources []int  `json:"sources,omitempty"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the document",
		Long:  "Sends the question to the server's /ask endpoint and prints the answer.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api := NewAPIClientWithCmd(cmd)
			return runAsk(cmd.OutOrStdout(), api, strings.Join(args, " "), outputJSON)
		},
	}
}

func runAsk(w io.Writer, api *APIClient, question string, outputJSON bool) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}

	var resp AskResponse
	if err := api.Post("/ask", AskRequest{Text: question}, &resp); err != nil {
		return err
	}

	if outputJSON {
		output, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(w, string(output))
		return nil
	}

	fmt.Fprintln(w, resp.Answer)
	if len(resp.Sources) > 0 {
		pages := make([]string, len(resp.Sources))
		for i, p := range resp.Sources {
			pages[i] = strconv.Itoa(p)
		}
		fmt.Fprintf(w, "\nSources: pages %s\n", strings.Join(pages, ", "))
	}
	return nil
}

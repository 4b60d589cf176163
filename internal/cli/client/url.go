package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// URLStatusCmd creates the kb url-status command.
func URLStatusCmd() *cobra.Command {
	var (
		status   string
		errMsg   string
	)

	cmd := &cobra.Command{
		Use:   "url-status <url_id>",
		Short: "Update the crawl status of a URL",
		Long: `Update the crawl status of a URL belonging to a website source.

Examples:
  # Mark a URL as crawled
  botforge kb url-status url-123 --status crawled

  # Record a crawl failure
  botforge kb url-status url-123 --status error --error "connection refused"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runURLStatus(args[0], status, errMsg, outputJSON)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "New status (pending, crawled, error)")
	cmd.Flags().StringVar(&errMsg, "error", "", "Error message (error status only)")
	cmd.MarkFlagRequired("status")

	return cmd
}

func runURLStatus(urlID, status, errMsg string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	body := map[string]interface{}{"status": status}
	if errMsg != "" {
		body["error_message"] = errMsg
	}

	resp, err := api.Put(fmt.Sprintf("/knowledge-base-urls/%s/status", urlID), body)
	if err != nil {
		return fmt.Errorf("failed to update URL status: %w", err)
	}

	var u SourceURL
	if err := json.Unmarshal(resp.Data, &u); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(u, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("URL %s status: %s\n", u.ID, u.Status)
		if u.LastCrawled != nil {
			fmt.Printf("Last crawled: %s\n", *u.LastCrawled)
		}
		if u.ErrorMessage != nil {
			fmt.Printf("Error: %s\n", *u.ErrorMessage)
		}
	}

	return nil
}

package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// ListSourcesResponse represents the paginated list API response.
type ListSourcesResponse struct {
	Items   []Source `json:"items"`
	Cursor  string   `json:"cursor,omitempty"`
	HasMore bool     `json:"has_more"`
}

// ListCmd creates the kb list command.
func ListCmd() *cobra.Command {
	var (
		chatbotID string
		limit     int
		cursor    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge sources",
		Long:  "Lists the knowledge sources attached to a chatbot in creation order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(chatbotID, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().StringVar(&chatbotID, "chatbot", "", "Override chatbot ID from config")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (0 returns all)")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runList(chatbotID string, limit int, cursor string, outputJSON bool) error {
	if chatbotID == "" {
		config, err := LoadConfig()
		if err != nil {
			return err
		}
		chatbotID = config.ChatbotID
	}

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	path := "/knowledge-bases/chatbot/" + chatbotID
	if limit > 0 || cursor != "" {
		params := url.Values{}
		if limit > 0 {
			params.Set("limit", strconv.Itoa(limit))
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		path += "?" + params.Encode()
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("failed to list knowledge sources: %w", err)
	}

	// The full listing returns a bare array; the paged form returns an
	// items/cursor envelope.
	var result ListSourcesResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		var items []Source
		if err := json.Unmarshal(resp.Data, &items); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		result.Items = items
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(result.Items) == 0 {
		fmt.Println("No knowledge sources found")
		return nil
	}

	fmt.Printf("Knowledge sources for chatbot %s:\n", chatbotID)
	for _, src := range result.Items {
		fmt.Printf("  %s: %s (%s, %s)\n", src.ID, src.Name, src.Type, src.Status)
	}
	if result.HasMore && result.Cursor != "" {
		fmt.Printf("\nMore results available. Use --cursor %s\n", result.Cursor)
	}

	return nil
}

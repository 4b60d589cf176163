package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// UpdateSourceRequest represents the update knowledge source API request.
// Absent fields leave the stored value untouched; a present urls or faqs
// array replaces the full child set, even when empty.
type UpdateSourceRequest struct {
	Name    *string     `json:"name,omitempty"`
	Status  *string     `json:"status,omitempty"`
	Content *string     `json:"content,omitempty"`
	URLs    *[]URLEntry `json:"urls,omitempty"`
	FAQs    *[]FAQEntry `json:"faqs,omitempty"`
}

// UpdateCmd creates the kb update command.
func UpdateCmd() *cobra.Command {
	var (
		name      string
		status    string
		content   string
		file      string
		urls      []string
		clearURLs bool
	)

	cmd := &cobra.Command{
		Use:   "update <source_id>",
		Short: "Update a knowledge source",
		Long: `Update a knowledge source. Only the supplied fields change.

Examples:
  # Rename a source
  botforge kb update src-123 --name "New name"

  # Deactivate a source
  botforge kb update src-123 --status inactive

  # Replace the URL set of a website source
  botforge kb update src-123 --url https://example.com/a --url https://example.com/b

  # Remove all URLs from a website source
  botforge kb update src-123 --clear-urls

  # Replace FAQs from a JSON file ({"faqs":[...]})
  botforge kb update src-123 --file faqs.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runUpdate(args[0], name, status, content, file, urls, clearURLs, outputJSON)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New source name")
	cmd.Flags().StringVar(&status, "status", "", "New status (active or inactive)")
	cmd.Flags().StringVar(&content, "content", "", "New text content")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with update fields (or '-' for stdin)")
	cmd.Flags().StringArrayVar(&urls, "url", nil, "Replacement URL (repeatable; replaces the full set)")
	cmd.Flags().BoolVar(&clearURLs, "clear-urls", false, "Remove all URLs from the source")

	return cmd
}

func runUpdate(sourceID, name, status, content, file string, urls []string, clearURLs bool, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	var req UpdateSourceRequest

	if file != "" {
		var input []byte
		if file == "-" {
			input, err = io.ReadAll(os.Stdin)
		} else {
			input, err = os.ReadFile(file)
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if err := json.Unmarshal(input, &req); err != nil {
			return fmt.Errorf("failed to parse JSON input: %w", err)
		}
	}

	if name != "" {
		req.Name = &name
	}
	if status != "" {
		req.Status = &status
	}
	if content != "" {
		req.Content = &content
	}
	if clearURLs {
		empty := []URLEntry{}
		req.URLs = &empty
	} else if len(urls) > 0 {
		entries := make([]URLEntry, 0, len(urls))
		for _, u := range urls {
			entries = append(entries, URLEntry{URL: u})
		}
		req.URLs = &entries
	}

	if req.Name == nil && req.Status == nil && req.Content == nil && req.URLs == nil && req.FAQs == nil {
		return fmt.Errorf("nothing to update")
	}

	resp, err := api.Put(fmt.Sprintf("/knowledge-bases/%s", sourceID), req)
	if err != nil {
		return fmt.Errorf("failed to update knowledge source: %w", err)
	}

	var source Source
	if err := json.Unmarshal(resp.Data, &source); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(source, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Updated knowledge source: %s\n", source.ID)
		printSource(&source)
	}

	return nil
}

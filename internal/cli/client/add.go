package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// URLEntry is a URL child in a create or update request.
type URLEntry struct {
	URL string `json:"url"`
}

// FAQEntry is a question/answer pair in a create or update request.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CreateSourceRequest represents the create knowledge source API request.
type CreateSourceRequest struct {
	ChatbotID string     `json:"chatbot_id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Status    string     `json:"status,omitempty"`
	Content   string     `json:"content,omitempty"`
	URLs      []URLEntry `json:"urls,omitempty"`
	FAQs      []FAQEntry `json:"faqs,omitempty"`
}

// AddCmd creates the kb add command.
func AddCmd() *cobra.Command {
	var (
		file       string
		sourceType string
		name       string
		status     string
		urls       []string
		chatbotID  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a knowledge source",
		Long: `Add a knowledge source from JSON input (stdin or file) or from flags.

Examples:
  # Add a text source from a file
  botforge kb add --type text --name "Shipping policy" --file policy.txt

  # Add a text source from stdin
  echo "We ship worldwide." | botforge kb add --type text --name "Shipping"

  # Add a website source
  botforge kb add --type website --name "Docs" --url https://example.com/docs --url https://example.com/faq

  # Add an faq source from JSON
  echo '{"type":"faq","name":"Support","faqs":[{"question":"Hours?","answer":"9-5"}]}' | botforge kb add

  # Register a file source (then upload with 'kb upload')
  botforge kb add --type file --name "Product manual"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAdd(file, sourceType, name, status, urls, chatbotID, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (JSON request or raw text content)")
	cmd.Flags().StringVarP(&sourceType, "type", "t", "", "Source type (website, file, text, faq)")
	cmd.Flags().StringVar(&name, "name", "", "Source name")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (active or inactive)")
	cmd.Flags().StringArrayVar(&urls, "url", nil, "URL to include (repeatable, website type only)")
	cmd.Flags().StringVar(&chatbotID, "chatbot", "", "Override chatbot ID from config")

	return cmd
}

func runAdd(file, sourceType, name, status string, urls []string, chatbotID string, outputJSON bool) error {
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

	req := CreateSourceRequest{
		ChatbotID: chatbotID,
		Name:      name,
		Type:      sourceType,
		Status:    status,
	}
	for _, u := range urls {
		req.URLs = append(req.URLs, URLEntry{URL: u})
	}

	// file and website sources carry no inline content; everything else reads
	// input from the file or stdin
	if sourceType != "file" && sourceType != "website" {
		var input []byte
		if file != "" {
			input, err = os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
		} else if stdinHasData() {
			input, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
		}

		req, err = mergeInput(req, input)
		if err != nil {
			return err
		}
	}

	if req.Type == "" {
		return fmt.Errorf("type is required")
	}
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}

	resp, err := api.Post("/knowledge-bases", req)
	if err != nil {
		return fmt.Errorf("failed to create knowledge source: %w", err)
	}

	var source Source
	if err := json.Unmarshal(resp.Data, &source); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(source, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Created knowledge source: %s\n", source.ID)
		fmt.Printf("Name: %s\n", source.Name)
		fmt.Printf("Type: %s\n", source.Type)
		if source.Type == "file" {
			fmt.Printf("\nUpload content with: botforge kb upload %s <path>\n", source.ID)
		}
	}

	return nil
}

// mergeInput folds the piped or file input into the flag-built request.
// JSON input becomes the request itself, with non-empty flags taking
// precedence over the corresponding JSON fields; raw text becomes the
// source content.
func mergeInput(base CreateSourceRequest, input []byte) (CreateSourceRequest, error) {
	if !isJSONInput(input) {
		if len(input) > 0 {
			base.Content = string(input)
		}
		return base, nil
	}

	var req CreateSourceRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return base, fmt.Errorf("failed to parse JSON input: %w", err)
	}
	if req.ChatbotID == "" {
		req.ChatbotID = base.ChatbotID
	}
	if base.Name != "" {
		req.Name = base.Name
	}
	if base.Type != "" {
		req.Type = base.Type
	}
	if base.Status != "" {
		req.Status = base.Status
	}
	return req, nil
}

func isJSONInput(input []byte) bool {
	s := strings.TrimSpace(string(input))
	return len(s) > 0 && (s[0] == '{' || s[0] == '[')
}

func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

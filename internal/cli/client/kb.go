package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Source represents a knowledge source from the API.
type Source struct {
	ID        string      `json:"id"`
	ChatbotID string      `json:"chatbot_id"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Status    string      `json:"status"`
	Content   string      `json:"content,omitempty"`
	FilePath  string      `json:"file_path,omitempty"`
	URLs      []SourceURL `json:"urls,omitempty"`
	FAQs      []SourceFAQ `json:"faqs,omitempty"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}

// SourceURL represents a URL child of a url-type source.
type SourceURL struct {
	ID           string  `json:"id"`
	URL          string  `json:"url"`
	Status       string  `json:"status"`
	LastCrawled  *string `json:"last_crawled,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// SourceFAQ represents a question/answer child of an faq-type source.
type SourceFAQ struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt string `json:"created_at"`
}

// KBCmd creates the kb parent command grouping knowledge source operations.
func KBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage knowledge sources",
		Long:  "Create, list, inspect, update, and delete knowledge sources for a chatbot.",
	}

	cmd.AddCommand(AddCmd())
	cmd.AddCommand(ListCmd())
	cmd.AddCommand(GetCmd())
	cmd.AddCommand(UpdateCmd())
	cmd.AddCommand(DeleteCmd())
	cmd.AddCommand(UploadCmd())
	cmd.AddCommand(DownloadCmd())
	cmd.AddCommand(URLStatusCmd())

	return cmd
}

func printSource(src *Source) {
	fmt.Printf("ID: %s\n", src.ID)
	fmt.Printf("Chatbot: %s\n", src.ChatbotID)
	fmt.Printf("Name: %s\n", src.Name)
	fmt.Printf("Type: %s\n", src.Type)
	fmt.Printf("Status: %s\n", src.Status)
	if src.FilePath != "" {
		fmt.Printf("File: %s\n", src.FilePath)
	}
	fmt.Printf("Created: %s\n", src.CreatedAt)
	fmt.Printf("Updated: %s\n", src.UpdatedAt)

	if src.Content != "" {
		fmt.Println()
		fmt.Println("--- Content ---")
		fmt.Println(src.Content)
	}

	if len(src.URLs) > 0 {
		fmt.Println()
		fmt.Println("URLs:")
		for _, u := range src.URLs {
			line := fmt.Sprintf("  %s: %s [%s]", u.ID, u.URL, u.Status)
			if u.LastCrawled != nil {
				line += fmt.Sprintf(" (crawled: %s)", *u.LastCrawled)
			}
			if u.ErrorMessage != nil {
				line += fmt.Sprintf(" error: %s", *u.ErrorMessage)
			}
			fmt.Println(line)
		}
	}

	if len(src.FAQs) > 0 {
		fmt.Println()
		fmt.Println("FAQs:")
		for _, f := range src.FAQs {
			fmt.Printf("  Q: %s\n", f.Question)
			fmt.Printf("  A: %s\n", f.Answer)
		}
	}
}
